package player

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Track describes one playable item in a playlist.
type Track struct {
	Title       string   `yaml:"title" json:"title"`
	URL         string   `yaml:"url" json:"url"`
	Duration    float64  `yaml:"duration" json:"duration"`
	AudioTracks []string `yaml:"audio_tracks,omitempty" json:"audio_tracks,omitempty"`
}

// Playlist is an ordered list of tracks.
type Playlist struct {
	Tracks []Track `yaml:"tracks"`
}

// LoadPlaylist decodes a YAML playlist document.
func LoadPlaylist(r io.Reader) (*Playlist, error) {
	var pl Playlist
	if err := yaml.NewDecoder(r).Decode(&pl); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	return &pl, nil
}

// LoadPlaylistFile reads and decodes a YAML playlist from disk.
func LoadPlaylistFile(path string) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	return LoadPlaylist(f)
}
