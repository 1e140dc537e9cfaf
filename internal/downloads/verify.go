package downloads

import "path"

// VerifyResult is the on-disk state of one downloaded track.
type VerifyResult struct {
	Path        string
	Exists      bool
	Size        int64
	LyricsFound bool
}

// Verify checks that every indexed track still has its audio file.
func (s *Store) Verify() []VerifyResult {
	entries := s.Entries()
	results := make([]VerifyResult, 0, len(entries))
	for _, e := range entries {
		r := VerifyResult{Path: e.SourcePath}
		if info, err := s.fs.Stat(path.Join(AudioDir, e.LocalAudio)); err == nil {
			r.Exists = info.Size() > 0
			r.Size = info.Size()
		}
		if e.LocalLyrics != "" {
			if _, err := s.fs.Stat(path.Join(AudioDir, e.LocalLyrics)); err == nil {
				r.LyricsFound = true
			}
		}
		results = append(results, r)
	}
	return results
}

// Missing returns the paths whose audio file is gone or empty.
func (s *Store) Missing() []string {
	var missing []string
	for _, r := range s.Verify() {
		if !r.Exists {
			missing = append(missing, r.Path)
		}
	}
	return missing
}
