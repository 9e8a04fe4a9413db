package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cordis-pipeline/internal/model"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Load reads, validates and normalizes a sheet, recording ingestion and
// normalization stages on tr when it is not nil.
func Load(ctx context.Context, pathOrURL string, tr *Tracker) (*model.Dataset, error) {
	if tr == nil {
		tr = NewTracker("load")
	}

	tr.StartStage(model.StageIngest, 0)
	table, err := Ingest(ctx, pathOrURL)
	if err == nil {
		err = ValidateHeaders(table)
	}
	if err != nil {
		tr.FailStage(err)
		return nil, err
	}
	tr.EndStage(len(table.Rows))

	tr.StartStage(model.StageNormalize, len(table.Rows))
	ds, stats := Normalize(table)
	tr.AddMissing(stats.Total())
	tr.EndStage(ds.Len())
	return ds, nil
}

// LoadFunc produces a dataset from a source.
type LoadFunc func(ctx context.Context, pathOrURL string, tr *Tracker) (*model.Dataset, error)

type fileStamp struct {
	modTime time.Time
	size    int64
}

func (s fileStamp) same(o fileStamp) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

type cacheEntry struct {
	dataset *model.Dataset
	stamp   fileStamp
}

// Loader memoizes normalized datasets by source path. A cached dataset is
// reloaded when its file's modification time or size changes. Remote sources
// stay cached until invalidated or evicted. Concurrent misses on one source
// share a single load; loads of different sources run independently.
type Loader struct {
	cache *lru.Cache[string, cacheEntry]
	group singleflight.Group
	load  LoadFunc
}

// NewLoader creates a loader holding at most size datasets.
func NewLoader(size int) (*Loader, error) {
	return NewLoaderWithFunc(size, Load)
}

// NewLoaderWithFunc creates a loader backed by a custom load function.
func NewLoaderWithFunc(size int, fn LoadFunc) (*Loader, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset cache: %w", err)
	}
	return &Loader{cache: cache, load: fn}, nil
}

type loadResult struct {
	dataset *model.Dataset
	stages  []model.StageMetrics
}

// Get returns the dataset of pathOrURL, loading it on a miss or when the file
// changed since it was cached. Datasets are shared and must not be mutated.
// Get returns ctx's error when ctx ends before the load completes.
func (l *Loader) Get(ctx context.Context, pathOrURL string, tr *Tracker) (*model.Dataset, error) {
	stamp, err := statSource(pathOrURL)
	if err != nil {
		l.cache.Remove(pathOrURL)
		return nil, fmt.Errorf("failed to stat sheet: %w", err)
	}

	if entry, ok := l.cache.Get(pathOrURL); ok {
		if entry.stamp.same(stamp) {
			if tr != nil {
				tr.SkipStage(model.StageIngest, "served from cache")
			}
			return entry.dataset, nil
		}
		log.Printf("🔄 Source %s changed on disk, reloading", pathOrURL)
	}

	trackerID := "load"
	if tr != nil {
		trackerID = tr.ReportID
	}
	led := false
	ch := l.group.DoChan(pathOrURL, func() (interface{}, error) {
		led = true
		lt := NewTracker(trackerID)
		ds, err := l.load(ctx, pathOrURL, lt)
		res := loadResult{dataset: ds, stages: lt.Stages()}
		if err == nil {
			l.cache.Add(pathOrURL, cacheEntry{dataset: ds, stamp: stamp})
		}
		return res, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		res := out.Val.(loadResult)
		if tr != nil {
			if led {
				tr.record(res.stages)
			} else if out.Err == nil {
				tr.SkipStage(model.StageIngest, "loaded by a concurrent request")
			}
		}
		if out.Err != nil {
			return nil, out.Err
		}
		return res.dataset, nil
	}
}

// Invalidate drops the cached dataset of pathOrURL.
func (l *Loader) Invalidate(pathOrURL string) {
	l.cache.Remove(pathOrURL)
}

// Purge drops every cached dataset.
func (l *Loader) Purge() {
	l.cache.Purge()
}

// Len returns the number of cached datasets.
func (l *Loader) Len() int {
	return l.cache.Len()
}

func statSource(pathOrURL string) (fileStamp, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return fileStamp{}, nil
	}
	info, err := os.Stat(pathOrURL)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}
