package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voicemedia/go-voicemedia/pkg/mediafeed"
)

// CatalogEntry is one media item the agent can recommend, plus the
// keywords that match it to an utterance.
type CatalogEntry struct {
	ID           int64    `yaml:"id"`
	Title        string   `yaml:"title"`
	ThumbnailURL string   `yaml:"thumbnail_url"`
	PlaybackURL  string   `yaml:"playback_url"`
	ViewCount    string   `yaml:"views"`
	Duration     string   `yaml:"duration"`
	Keywords     []string `yaml:"keywords"`
}

// Catalog is the dev agent's media inventory.
type Catalog struct {
	Entries []CatalogEntry `yaml:"medias"`
}

// LoadCatalog reads a catalog YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &c, nil
}

// DefaultCatalog returns a small built-in inventory so the dev agent
// answers out of the box.
func DefaultCatalog() *Catalog {
	return &Catalog{Entries: []CatalogEntry{
		{
			ID:           1,
			Title:        "“一演丁真 便入戏 得太深”——丁真能量单曲《群丁》",
			ThumbnailURL: "https://tse1-mm.cn.bing.net/th/id/OIP-C.dC6CLNcwmIg1I2fEbinJyQHaE5",
			PlaybackURL:  "/agent/media/1",
			ViewCount:    "1250.8万",
			Duration:     "04:09",
			Keywords:     []string{"丁真", "群丁", "单曲"},
		},
		{
			ID:           2,
			Title:        "【Playlist】温暖的旋律让你忘却疲惫|居家歌单|放松|慵懒|节奏",
			ThumbnailURL: "https://tse1-mm.cn.bing.net/th/id/OIP-C.dC6CLNcwmIg1I2fEbinJyQHaE5",
			PlaybackURL:  "/agent/media/2",
			ViewCount:    "7.5万",
			Duration:     "43:38",
			Keywords:     []string{"轻音乐", "放松", "歌单", "音乐"},
		},
	}}
}

// Match returns the catalog items whose keywords (or title) appear in
// the utterance.
func (c *Catalog) Match(message string) []mediafeed.Item {
	var out []mediafeed.Item
	for _, e := range c.Entries {
		if e.matches(message) {
			out = append(out, e.Item())
		}
	}
	return out
}

func (e CatalogEntry) matches(message string) bool {
	for _, kw := range e.Keywords {
		if kw != "" && strings.Contains(message, kw) {
			return true
		}
	}
	return strings.Contains(message, e.Title)
}

// entryOf builds a catalog entry from a pushed item. Pushed media carry
// no keywords, so they match by title only.
func entryOf(it mediafeed.Item) CatalogEntry {
	return CatalogEntry{
		ID:           it.ID,
		Title:        it.Title,
		ThumbnailURL: it.ThumbnailURL,
		PlaybackURL:  it.PlaybackURL,
		ViewCount:    it.ViewCount,
		Duration:     it.Duration,
	}
}

// Item converts the entry to its wire representation.
func (e CatalogEntry) Item() mediafeed.Item {
	return mediafeed.Item{
		ID:           e.ID,
		Title:        e.Title,
		ThumbnailURL: e.ThumbnailURL,
		PlaybackURL:  e.PlaybackURL,
		ViewCount:    e.ViewCount,
		Duration:     e.Duration,
	}
}
