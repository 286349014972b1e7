// Package assets resolves and validates per-entity decoration images.
//
// An entity "United States" is looked up as united_states.png (and a few
// spelling variants) inside the assets directory. Files that are empty or
// cannot be decoded fall back to the invisible placeholder.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
	"golang.org/x/sync/errgroup"
)

// Placeholder is the asset of an entity without a usable decoration.
const Placeholder = ""

// Extensions are tried in order for every candidate file name.
var Extensions = []string{".png", ".jpg", ".jpeg"}

// Problem describes one unusable asset.
type Problem = schema.AssetProblem

// Lookup maps entity ids to validated asset paths.
type Lookup struct {
	dir      string
	mu       sync.RWMutex
	resolved map[string]string
	problems []Problem
}

var _ contract.AssetLookup = &Lookup{}

// New creates a lookup over dir. An empty dir yields placeholders for everything.
func New(dir string) *Lookup {
	return &Lookup{dir: dir, resolved: make(map[string]string)}
}

// Lookup returns the validated asset of the entity or the placeholder.
// Results are memoized, so every file is decoded at most once.
func (l *Lookup) Lookup(entityID string) string {
	l.mu.RLock()
	path, ok := l.resolved[entityID]
	l.mu.RUnlock()
	if ok {
		return path
	}

	path, problem := l.resolve(entityID)
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.resolved[entityID]; ok {
		return existing
	}
	l.resolved[entityID] = path
	if problem != nil {
		l.problems = append(l.problems, *problem)
		contract.LogWarn(fmt.Sprintf("Using placeholder for %s", entityID), errors.New(problem.Reason))
	}
	return path
}

// Scan resolves every entity up front with at most workers concurrent decodes.
func (l *Lookup) Scan(ctx context.Context, entities []string, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for _, id := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.Lookup(id)
			return nil
		})
	}
	return g.Wait()
}

// Problems returns the assets that fell back to the placeholder.
func (l *Lookup) Problems() []Problem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Problem(nil), l.problems...)
}

func (l *Lookup) resolve(entityID string) (string, *Problem) {
	if l.dir == "" {
		return Placeholder, nil
	}
	for _, name := range Candidates(entityID) {
		for _, ext := range Extensions {
			path := filepath.Join(l.dir, name+ext)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if err := Validate(path); err != nil {
				return Placeholder, &Problem{EntityID: entityID, Path: path, Reason: err.Error()}
			}
			return path, nil
		}
	}
	// A missing asset is the normal case for most entities, not a problem.
	return Placeholder, nil
}

// Candidates returns the file stems tried for an entity, most specific first.
func Candidates(entityID string) []string {
	trimmed := strings.TrimSpace(entityID)
	lower := strings.ToLower(trimmed)
	seen := make(map[string]struct{})
	var out []string
	for _, c := range []string{
		trimmed,
		lower,
		strings.ReplaceAll(lower, " ", "_"),
		strings.ReplaceAll(lower, " ", "-"),
		strings.ReplaceAll(lower, " ", ""),
	} {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Validate reports why an image file is unusable, or nil.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("empty file")
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("corrupt image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("image has no pixels")
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, _, err := image.Decode(f); err != nil {
		return fmt.Errorf("corrupt image: %w", err)
	}
	return nil
}
