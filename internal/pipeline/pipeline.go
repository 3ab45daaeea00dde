package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scholarpath/directory-cli/internal/config"
	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/model"
	"github.com/scholarpath/directory-cli/internal/resilience"
	"github.com/scholarpath/directory-cli/internal/resolve"
	"github.com/scholarpath/directory-cli/internal/runlog"
	"github.com/scholarpath/directory-cli/internal/scorecard"
	"github.com/scholarpath/directory-cli/internal/sink"
	"github.com/scholarpath/directory-cli/internal/source"
)

// RemoteFetcher fetches remote field sets for one institution id. Satisfied
// by *scorecard.Client; stubbed in tests.
type RemoteFetcher interface {
	FetchInstitution(ctx context.Context, id string) (map[string]any, error)
}

// Pipeline wires the stages together over one data directory. Stages are
// independently triggerable and idempotent: re-running against unchanged
// inputs rewrites nothing.
type Pipeline struct {
	cfg      *config.Config
	ordered  []*merge.Mapping // highest declared priority first
	mappings map[string]*merge.Mapping
	merger   *merge.Merger
	writer   *sink.Writer
	fetcher  RemoteFetcher
}

// New creates a Pipeline. fetcher may be nil, which disables the remote
// fetch pass entirely.
func New(cfg *config.Config, mappings []*merge.Mapping, fetcher RemoteFetcher) *Pipeline {
	ordered := make([]*merge.Mapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	byProvider := make(map[string]*merge.Mapping, len(mappings))
	for _, mp := range mappings {
		byProvider[mp.Provider] = mp
	}
	return &Pipeline{
		cfg:      cfg,
		ordered:  ordered,
		mappings: byProvider,
		merger:   merge.NewMerger(),
		writer:   sink.NewWriter(cfg.DataDir),
		fetcher:  fetcher,
	}
}

// Mapping returns the mapping declared for a provider, or nil.
func (p *Pipeline) Mapping(provider string) *merge.Mapping {
	return p.mappings[provider]
}

// BuildDetails runs the full detail-document build: merge local sources per
// institution, optionally fetch remote fields, and persist one document per
// institution with skip-if-exists resumability. Per-institution errors are
// logged and counted; only configuration-level failures abort.
func (p *Pipeline) BuildDetails(ctx context.Context, srcs *Sources) (runlog.Counts, error) {
	masterMap := p.Mapping(ProviderMaster)
	if masterMap == nil {
		return runlog.Counts{}, eris.New("pipeline: no mapping declared for master source")
	}

	// Identity resolution for the name-keyed enrichment source.
	matcher := resolve.NewScoreMatcher(MasterCandidates(srcs.Master, masterMap))
	aidIndex, unmatched := ResolveEnrichment(matcher, srcs.Aid)
	if err := sink.WriteUnmatched(p.cfg.DataDir, unmatched); err != nil {
		return runlog.Counts{}, err
	}

	commonAppByID := p.indexByID(srcs.CommonApp, ProviderCommonApp)
	idCol, _ := identityColumns(srcs.Master, masterMap)

	// Assemble records from local sources, sequentially: slug assignment
	// must see institutions in master order to stay deterministic. Providers
	// apply in declared priority order, so first non-empty wins follows the
	// mapping files, not a hardcoded source order.
	var todo []*model.Institution
	var counts runlog.Counts
	for _, row := range srcs.Master.Rows {
		id := ""
		if idCol >= 0 && idCol < len(row) {
			id = row[idCol]
		}

		inst := &model.Institution{}
		for _, mp := range p.ordered {
			p.applyProvider(inst, mp, srcs, row, id, commonAppByID, aidIndex)
		}
		if inst.ID == "" || inst.Name == "" {
			counts.Errored++
			zap.L().Warn("pipeline: master row missing id or name, skipped",
				zap.Strings("row", row),
			)
			continue
		}

		p.writer.AssignSlug(inst)
		if p.writer.DetailExists(inst.Slug) {
			// Done in a previous run: no remote call, no rewrite.
			counts.Skipped++
			continue
		}
		todo = append(todo, inst)
	}

	if err := p.writeDetails(ctx, todo, &counts); err != nil {
		return counts, err
	}

	if err := sink.ClearCheckpoint(p.cfg.DataDir); err != nil {
		zap.L().Warn("pipeline: clear checkpoint", zap.Error(err))
	}

	zap.L().Info("pipeline: detail build complete",
		zap.Int("processed", counts.Processed),
		zap.Int("skipped", counts.Skipped),
		zap.Int("errored", counts.Errored),
	)
	return counts, nil
}

// writeDetails fetches remote fields and persists the remaining documents.
// Workers share the client's single rate-limiter token budget, so adding
// workers never exceeds the provider's quota. An existing checkpoint seeds
// the written-slug accumulator so an interrupted run's progress carries over.
func (p *Pipeline) writeDetails(ctx context.Context, todo []*model.Institution, counts *runlog.Counts) error {
	concurrency := p.cfg.Fetch.Concurrency
	if concurrency <= 0 || p.fetcher == nil {
		concurrency = 1
	}
	checkpointEvery := p.cfg.Fetch.CheckpointEvery
	if checkpointEvery <= 0 {
		checkpointEvery = 100
	}

	var processed, errored atomic.Int64
	var cpMu sync.Mutex
	var writtenSlugs []string
	if cp := sink.LoadCheckpoint(p.cfg.DataDir); cp != nil {
		writtenSlugs = cp.WrittenSlugs
		zap.L().Info("pipeline: resuming from checkpoint",
			zap.Int("written", len(cp.WrittenSlugs)),
		)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, inst := range todo {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}

			if p.fetcher != nil && p.cfg.Fetch.Enabled {
				p.fetchRemote(gCtx, inst, &errored)
			}

			if _, _, err := p.writer.WriteDetail(inst); err != nil {
				errored.Add(1)
				zap.L().Error("pipeline: write detail failed",
					zap.String("id", inst.ID),
					zap.String("name", inst.Name),
					zap.Error(err),
				)
				return nil // per-institution failure never aborts the batch
			}
			processed.Add(1)

			cpMu.Lock()
			writtenSlugs = append(writtenSlugs, inst.Slug)
			if len(writtenSlugs)%checkpointEvery == 0 {
				cp := &sink.Checkpoint{Index: len(writtenSlugs), WrittenSlugs: writtenSlugs}
				if err := sink.SaveCheckpoint(p.cfg.DataDir, cp); err != nil {
					zap.L().Warn("pipeline: save checkpoint", zap.Error(err))
				}
			}
			cpMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "pipeline: write details")
	}

	counts.Processed += int(processed.Load())
	counts.Errored += int(errored.Load())
	return nil
}

// fetchRemote merges the remote field set into the institution. Rate-limit
// exhaustion and HTTP failures leave the remote fields absent for this
// institution only.
func (p *Pipeline) fetchRemote(ctx context.Context, inst *model.Institution, errored *atomic.Int64) {
	result, err := p.fetcher.FetchInstitution(ctx, inst.ID)
	if err != nil {
		errored.Add(1)
		var httpErr *scorecard.HTTPError
		switch {
		case resilience.IsRateLimited(err):
			zap.L().Warn("pipeline: remote fetch rate limited, fields absent",
				zap.String("id", inst.ID),
				zap.String("name", inst.Name),
				zap.Error(err),
			)
		case errors.As(err, &httpErr):
			zap.L().Warn("pipeline: remote fetch failed, fields absent",
				zap.String("id", inst.ID),
				zap.String("name", inst.Name),
				zap.Int("status", httpErr.Status),
			)
		default:
			zap.L().Warn("pipeline: remote fetch failed, fields absent",
				zap.String("id", inst.ID),
				zap.String("name", inst.Name),
				zap.Error(err),
			)
		}
		return
	}
	if result == nil {
		return
	}

	if mp := p.Mapping(ProviderScorecard); mp != nil {
		header, row := flattenResult(result)
		remote := &model.Institution{}
		p.merger.Apply(remote, mp, header, row)
		merge.Merge(inst, remote)
	}
}

// applyProvider merges one provider's row(s) for an institution, dispatching
// on how that provider is keyed. Remote providers are applied later in the
// fetch pass and contribute nothing here.
func (p *Pipeline) applyProvider(inst *model.Institution, mp *merge.Mapping, srcs *Sources, masterRow []string, id string, commonAppByID map[string]int, aidIndex map[string][]int) {
	switch mp.Provider {
	case ProviderMaster:
		p.merger.Apply(inst, mp, srcs.Master.Header, masterRow)
	case ProviderCommonApp:
		if srcs.CommonApp == nil || id == "" {
			return
		}
		if rowIdx, ok := commonAppByID[id]; ok {
			p.merger.Apply(inst, mp, srcs.CommonApp.Header, srcs.CommonApp.Rows[rowIdx])
		}
	case ProviderAid:
		if srcs.Aid == nil || id == "" {
			return
		}
		for _, rowIdx := range aidIndex[id] {
			p.merger.Apply(inst, mp, srcs.Aid.Header, srcs.Aid.Rows[rowIdx])
		}
	}
}

// indexByID maps canonical ids to row indexes for an id-keyed source.
func (p *Pipeline) indexByID(table *source.Table, provider string) map[string]int {
	mp := p.Mapping(provider)
	if mp == nil || table == nil {
		return nil
	}
	idCol, _ := identityColumns(table, mp)
	if idCol < 0 {
		return nil
	}

	index := make(map[string]int, table.Len())
	for i, row := range table.Rows {
		if idCol < len(row) && row[idCol] != "" {
			if _, dup := index[row[idCol]]; !dup {
				index[row[idCol]] = i
			}
		}
	}
	return index
}
