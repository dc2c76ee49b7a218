package beatgrid

import (
	"fmt"
	"math"
	"slices"

	"github.com/tphakala/go-beatgrid/internal/mathutil"
)

// TempoGroup is a candidate tempo with the number of peak pairs voting for it.
type TempoGroup struct {
	Tempo float64

	// Count is the number of peak pairs whose folded interval maps to Tempo.
	Count int

	// AnchorPosition is the position of the earlier peak of the first pair
	// that voted for Tempo.
	AnchorPosition int

	// Peaks are the distinct peaks that took part in a vote, in first-seen order.
	Peaks []Peak
}

// TempoOptions controls tempo clustering.
type TempoOptions struct {
	Range          BPMRange
	Precision      int
	RoundToInteger bool
}

func (o TempoOptions) round(tempo float64) float64 {
	if o.RoundToInteger {
		return mathutil.Round(tempo, 0)
	}
	return mathutil.Round(tempo, o.Precision)
}

// FoldTempo doubles tempo while it is at or below r.Min, then halves it while
// it is at or above r.Max, so the result lies in [r.Min, r.Max). Non-positive
// and non-finite tempos, and ranges rejected by BPMRange.Validate, leave tempo
// unchanged.
func FoldTempo(tempo float64, r BPMRange) float64 {
	if tempo <= 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return tempo
	}
	if !r.foldable() {
		return tempo
	}
	for tempo <= r.Min {
		tempo *= octaveFactor
	}
	for tempo >= r.Max {
		tempo /= octaveFactor
	}
	return tempo
}

// ClusterTempos pairs each peak with up to nine following peaks, converts the
// interval to a tempo, folds it into opts.Range, rounds it and counts votes per
// tempo. The five most voted groups are returned, ties in first-seen order.
func ClusterTempos(peaks []Peak, sampleRate int, opts TempoOptions) ([]TempoGroup, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}
	if err := opts.Range.Validate(); err != nil {
		return nil, err
	}
	if opts.Precision < 0 || opts.Precision > mathutil.MaxPrecision {
		return nil, fmt.Errorf("%w: precision must be 0-%d digits", ErrInvalidConfig, mathutil.MaxPrecision)
	}
	if len(peaks) == 0 {
		return nil, fmt.Errorf("%w: no peaks", ErrDetection)
	}
	if !hasSignal(peaks) {
		return nil, fmt.Errorf("%w: silent signal", ErrDetection)
	}

	groups := make([]*tempoVotes, 0)
	index := make(map[float64]*tempoVotes)

	for i, p := range peaks {
		for j := i + 1; j < len(peaks) && j <= i+tempoLookahead; j++ {
			interval := peaks[j].Position - p.Position
			if interval <= 0 {
				continue
			}

			tempo, ok := opts.candidate(interval, sampleRate)
			if !ok {
				continue
			}

			g, seen := index[tempo]
			if !seen {
				g = &tempoVotes{
					TempoGroup: TempoGroup{Tempo: tempo, AnchorPosition: p.Position},
					members:    make(map[int]struct{}),
				}
				index[tempo] = g
				groups = append(groups, g)
			}
			g.Count++
			g.add(p)
			g.add(peaks[j])
		}
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no tempo candidates", ErrDetection)
	}

	ranked := make([]TempoGroup, len(groups))
	for i, g := range groups {
		ranked[i] = g.TempoGroup
	}
	slices.SortStableFunc(ranked, func(a, b TempoGroup) int {
		return b.Count - a.Count
	})

	return ranked[:min(len(ranked), maxTempoGroups)], nil
}

// candidate turns a peak interval into a folded, rounded tempo. Rounding can
// push a tempo onto r.Max, in which case it is folded and rounded again.
func (o TempoOptions) candidate(interval, sampleRate int) (float64, bool) {
	raw := secondsPerMinute / (float64(interval) / float64(sampleRate))
	tempo := o.round(FoldTempo(raw, o.Range))
	if !o.Range.Contains(tempo) {
		tempo = o.round(FoldTempo(tempo, o.Range))
	}
	return tempo, o.Range.Contains(tempo)
}

type tempoVotes struct {
	TempoGroup
	members map[int]struct{}
}

func (g *tempoVotes) add(p Peak) {
	if _, ok := g.members[p.Position]; ok {
		return
	}
	g.members[p.Position] = struct{}{}
	g.Peaks = append(g.Peaks, p)
}

func hasSignal(peaks []Peak) bool {
	for _, p := range peaks {
		if p.Volume > 0 {
			return true
		}
	}
	return false
}
