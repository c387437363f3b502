package models

import "time"

// Rank is a discrete tier label derived solely from a user's XP.
type Rank string

const (
	RankBronze      Rank = "Bronze"
	RankSilver      Rank = "Silver"
	RankPlatinum    Rank = "Platinum"
	RankDiamond     Rank = "Diamond"
	RankHeroic      Rank = "Heroic"
	RankMaster      Rank = "Master"
	RankGrandmaster Rank = "Grandmaster"
)

// RankThreshold maps the minimum XP required to hold a rank.
type RankThreshold struct {
	Rank  Rank  `json:"rank"`
	MinXP int64 `json:"min_xp"`
}

// RankThresholds is ordered descending by MinXP. The lowest tier starts at 0,
// so every non-negative XP value resolves to exactly one rank.
var RankThresholds = []RankThreshold{
	{RankGrandmaster, 25000},
	{RankMaster, 10000},
	{RankHeroic, 4000},
	{RankDiamond, 1500},
	{RankPlatinum, 500},
	{RankSilver, 100},
	{RankBronze, 0},
}

// XP accrual cadence for active viewing sessions.
const (
	XPGainInterval = 30 * time.Second
	XPPerInterval  = int64(5)
)

// ResolveRank returns the highest tier whose threshold is at or below xp.
// Cached ranks are never trusted as input: callers always recompute from
// raw XP after any XP write.
func ResolveRank(xp int64) Rank {
	for _, t := range RankThresholds {
		if xp >= t.MinXP {
			return t.Rank
		}
	}
	return RankBronze
}

// RankProgress describes how far a user is toward the next tier.
type RankProgress struct {
	Current     Rank  `json:"current"`
	Next        *Rank `json:"next,omitempty"`
	XPRemaining int64 `json:"xp_remaining"`
	// Fraction of the way from the current tier's floor to the next, in [0,1].
	// Always 1.0 at the top tier.
	Fraction float64 `json:"fraction"`
}

// ProgressToNext computes progress from raw XP. At the top tier Next is nil
// and Fraction is 1.0 for any xp at or above the top threshold.
func ProgressToNext(xp int64) RankProgress {
	if xp < 0 {
		xp = 0
	}
	for i, t := range RankThresholds {
		if xp < t.MinXP {
			continue
		}
		if i == 0 {
			return RankProgress{Current: t.Rank, Fraction: 1.0}
		}
		next := RankThresholds[i-1]
		span := next.MinXP - t.MinXP
		frac := float64(xp-t.MinXP) / float64(span)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		nextRank := next.Rank
		return RankProgress{
			Current:     t.Rank,
			Next:        &nextRank,
			XPRemaining: next.MinXP - xp,
			Fraction:    frac,
		}
	}
	return RankProgress{Current: RankBronze}
}
