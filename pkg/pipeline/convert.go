package pipeline

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/humsha/educe/pkg/errors"
	"github.com/humsha/educe/pkg/observability"
	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/rst/nuclearity"
	"github.com/humsha/educe/pkg/rst/ranking"
	"github.com/humsha/educe/pkg/rst/rsttree"
)

// Convert runs the three conversion passes over a single dependency tree:
// nuclearity classification, attachment ranking, and the binary build.
// The input tree's Nucs and Ranks slices are filled in place.
//
// docID identifies the document in observability events; provider supplies
// the frequency table for most_frequent_by_rel and may be nil otherwise.
// Options must already be validated.
func Convert(ctx context.Context, docID string, t *deptree.DepTree, opts Options, provider nuclearity.Provider) (*rsttree.Tree, Stats, error) {
	var stats Stats

	// Pass 1: classify nuclearity.
	classifyStart := time.Now()
	observability.Convert().OnClassifyStart(ctx, docID, opts.Nuclearity)
	err := classify(t, opts, provider)
	stats.ClassifyTime = time.Since(classifyStart)
	observability.Convert().OnClassifyComplete(ctx, docID, opts.Nuclearity, stats.ClassifyTime, err)
	if err != nil {
		return nil, stats, err
	}

	// Pass 2: rank attachments.
	rankStart := time.Now()
	observability.Convert().OnRankStart(ctx, docID, opts.Ranking)
	err = rank(t, opts)
	stats.RankTime = time.Since(rankStart)
	observability.Convert().OnRankComplete(ctx, docID, opts.Ranking, stats.RankTime, err)
	if err != nil {
		return nil, stats, err
	}

	// Pass 3: fold into a binary constituency tree.
	buildStart := time.Now()
	observability.Convert().OnBuildStart(ctx, docID)
	tree, err := build(t)
	stats.BuildTime = time.Since(buildStart)
	stats.LeafCount = t.Len() - 1
	observability.Convert().OnBuildComplete(ctx, docID, stats.LeafCount, stats.BuildTime, err)
	if err != nil {
		return nil, stats, err
	}

	return tree, stats, nil
}

func classify(t *deptree.DepTree, opts Options, provider nuclearity.Provider) error {
	c, err := nuclearity.New(nuclearity.Strategy(opts.Nuclearity), provider)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err,
			"unknown nuclearity strategy %q", opts.Nuclearity)
	}
	if err := c.Fit(nil, nil); err != nil {
		if goerrors.Is(err, nuclearity.ErrNoProvider) {
			return errors.Wrap(errors.ErrCodeMissingStats, err,
				"strategy %q requires a statistics table", opts.Nuclearity)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "fit classifier")
	}
	nucs, err := c.Predict([]*deptree.DepTree{t})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "classify nuclearity")
	}
	copy(t.Nucs, nucs[0])
	return nil
}

func rank(t *deptree.DepTree, opts Options) error {
	r, err := ranking.New(ranking.Strategy(opts.Ranking))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err,
			"unknown ranking strategy %q", opts.Ranking)
	}
	ranks, err := r.Predict([]*deptree.DepTree{t})
	if err != nil {
		switch {
		case goerrors.Is(err, ranking.ErrMissingSentences):
			return errors.Wrap(errors.ErrCodeMissingSentences, err,
				"strategy %q needs sentence grouping", opts.Ranking)
		case goerrors.Is(err, ranking.ErrNotPermutation):
			return errors.Wrap(errors.ErrCodeBadRanking, err, "rank attachments")
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "rank attachments")
	}
	copy(t.Ranks, ranks[0])
	return nil
}

func build(t *deptree.DepTree) (*rsttree.Tree, error) {
	tree, err := rsttree.Build(t)
	if err != nil {
		switch {
		case goerrors.Is(err, deptree.ErrNoRoot):
			return nil, errors.Wrap(errors.ErrCodeNoRoot, err, "build tree")
		case goerrors.Is(err, deptree.ErrMultipleRoots):
			return nil, errors.Wrap(errors.ErrCodeMultipleRoots, err, "build tree")
		case goerrors.Is(err, deptree.ErrCycle):
			return nil, errors.Wrap(errors.ErrCodeCycle, err, "build tree")
		case goerrors.Is(err, rsttree.ErrSpanOverlap):
			return nil, errors.Wrap(errors.ErrCodeSpanOverlap, err, "build tree")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "build tree")
	}
	return tree, nil
}
