// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ActionKind classifies user-article interactions.
type ActionKind int

const (
	// ActionView indicates the article was opened and read.
	ActionView ActionKind = iota
	// ActionClick indicates the article was clicked in a list.
	ActionClick
	// ActionLike indicates an explicit positive reaction.
	ActionLike
	// ActionComment indicates the user commented on the article.
	ActionComment
	// ActionBookmark indicates the article was saved for later.
	ActionBookmark
	// ActionShare indicates the article was shared externally.
	ActionShare
)

// String returns a human-readable name for the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionView:
		return "view"
	case ActionClick:
		return "click"
	case ActionLike:
		return "like"
	case ActionComment:
		return "comment"
	case ActionBookmark:
		return "bookmark"
	case ActionShare:
		return "share"
	default:
		return "unknown"
	}
}

// Weight returns the engagement weight for this action kind.
// The ordering view < click < like < comment < bookmark < share is
// load-bearing for profile construction; the literal values are tunable.
func (k ActionKind) Weight() float64 {
	switch k {
	case ActionView:
		return 1.0
	case ActionClick:
		return 1.1
	case ActionLike:
		return 2.0
	case ActionComment:
		return 2.2
	case ActionBookmark:
		return 2.5
	case ActionShare:
		return 3.0
	default:
		return 0.0
	}
}

// Significant reports whether this action should trigger a feed refresh.
func (k ActionKind) Significant() bool {
	switch k {
	case ActionView, ActionLike, ActionShare, ActionBookmark:
		return true
	default:
		return false
	}
}

// Engaging reports whether this action signals enough intent to
// warrant re-running preference analysis for the user.
func (k ActionKind) Engaging() bool {
	switch k {
	case ActionLike, ActionShare, ActionBookmark:
		return true
	default:
		return false
	}
}

// ParseActionKind parses a string action name.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return ActionView, nil
	case "click":
		return ActionClick, nil
	case "like":
		return ActionLike, nil
	case "comment":
		return ActionComment, nil
	case "bookmark":
		return ActionBookmark, nil
	case "share":
		return ActionShare, nil
	default:
		return 0, fmt.Errorf("unknown action kind %q", s)
	}
}

// EngagementCounters holds rolling per-article engagement counts.
type EngagementCounters struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// Article is a news article as delivered by the ingestion pipeline.
// Immutable to this package except for engagement counters.
type Article struct {
	// ID is the unique article identifier.
	ID int64 `json:"id"`

	// Title is the headline.
	Title string `json:"title"`

	// Body is the article text.
	Body string `json:"body"`

	// Keywords are extracted keywords, if any.
	Keywords []string `json:"keywords,omitempty"`

	// Categories are the category names the article belongs to.
	Categories []string `json:"categories,omitempty"`

	// SourceID identifies the publishing source.
	SourceID string `json:"source_id"`

	// PublishedAt is the publication timestamp.
	PublishedAt time.Time `json:"published_at"`

	// Counters are rolling engagement counters.
	Counters EngagementCounters `json:"counters"`
}

// titleRepeat weights headline terms more heavily during vectorization.
const titleRepeat = 3

// VectorText assembles the text used for vectorization: the title repeated
// for extra weight, then body, keywords, and category names.
func (a Article) VectorText() string {
	var b strings.Builder
	if a.Title != "" {
		for i := 0; i < titleRepeat; i++ {
			b.WriteString(a.Title)
			b.WriteByte(' ')
		}
	}
	if a.Body != "" {
		b.WriteString(a.Body)
		b.WriteByte(' ')
	}
	for _, kw := range a.Keywords {
		b.WriteString(kw)
		b.WriteByte(' ')
	}
	for _, c := range a.Categories {
		b.WriteString(c)
		b.WriteByte(' ')
	}
	return b.String()
}

// PrimaryCategory returns the first category, or "" if none.
func (a Article) PrimaryCategory() string {
	if len(a.Categories) == 0 {
		return ""
	}
	return a.Categories[0]
}

// Interaction is a single user-article interaction event. Append-only.
type Interaction struct {
	// UserID is the acting user.
	UserID int64 `json:"user_id"`

	// ArticleID is the article acted upon.
	ArticleID int64 `json:"article_id"`

	// Action classifies the interaction.
	Action ActionKind `json:"action"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`

	// DwellSeconds is the reading time for views, zero if unknown.
	DwellSeconds int `json:"dwell_seconds,omitempty"`
}

// Valid reports whether the record is well-formed. Malformed upstream
// records are skipped per-record in batch paths, never fatal.
func (i Interaction) Valid() bool {
	return i.UserID > 0 && i.ArticleID > 0 && !i.Timestamp.IsZero()
}

// ReadingPreferences is the qualitative reading-preference blob carried on
// a PreferenceRecord.
type ReadingPreferences struct {
	AvgReadSeconds float64  `json:"avg_read_seconds"`
	PeakHour       int      `json:"peak_hour"`
	PeakDay        string   `json:"peak_day"`
	VelocityPerDay float64  `json:"velocity_per_day"`
	EngagementRate float64  `json:"engagement_rate"`
	TopKeywords    []string `json:"top_keywords,omitempty"`
}

// PreferenceRecord is the per-user preference state. Written only by the
// preference analyzer; read by fallback paths and the freshness filter.
type PreferenceRecord struct {
	UserID     int64              `json:"user_id"`
	Categories []string           `json:"categories,omitempty"`
	Sources    []string           `json:"sources,omitempty"`
	Reading    ReadingPreferences `json:"reading"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// SignalKind identifies a recommendation signal source.
type SignalKind int

const (
	// SignalContent is the profile-similarity signal.
	SignalContent SignalKind = iota
	// SignalTrending is the engagement-trending signal.
	SignalTrending
	// SignalFresh is the recency signal.
	SignalFresh
	// SignalBreaking is the early-engagement-velocity signal.
	SignalBreaking
	// SignalExplore is the discovery injection signal.
	SignalExplore
	// SignalFallback marks non-personalized backfill.
	SignalFallback
)

// String returns the signal identifier used in score breakdowns.
func (s SignalKind) String() string {
	switch s {
	case SignalContent:
		return "content"
	case SignalTrending:
		return "trending"
	case SignalFresh:
		return "fresh"
	case SignalBreaking:
		return "breaking"
	case SignalExplore:
		return "explore"
	case SignalFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Contribution records one signal's contribution to a recommendation.
// Scoring never depends on the reason text; it is formatted for display
// only at the boundary.
type Contribution struct {
	// Signal identifies the contributing signal.
	Signal SignalKind `json:"signal"`

	// Score is the signal's raw score before blend weighting.
	Score float64 `json:"score"`

	// Weighted is the blend-weighted contribution to the final score.
	Weighted float64 `json:"weighted"`

	// Reason is the human-readable explanation from this signal.
	Reason string `json:"reason"`
}

// Recommendation is one ranked article with its score provenance.
type Recommendation struct {
	// Article is the recommended article.
	Article Article `json:"article"`

	// Score is the combined relevance score.
	Score float64 `json:"score"`

	// Contributions is the per-signal score breakdown, in arrival order.
	Contributions []Contribution `json:"contributions,omitempty"`

	// Backfilled marks items added past a diversity cap to reach the
	// requested size.
	Backfilled bool `json:"backfilled,omitempty"`
}

// Reason formats the accumulated signal reasons into one display string.
func (r Recommendation) Reason() string {
	var reasons []string
	seen := make(map[string]struct{}, len(r.Contributions))
	for _, c := range r.Contributions {
		if c.Reason == "" {
			continue
		}
		if _, ok := seen[c.Reason]; ok {
			continue
		}
		seen[c.Reason] = struct{}{}
		reasons = append(reasons, c.Reason)
	}

	switch len(reasons) {
	case 0:
		return "Recommended for you"
	case 1:
		return reasons[0]
	case 2:
		return reasons[0] + " and " + reasons[1]
	default:
		return reasons[0] + ", " + reasons[1] + ", and more"
	}
}

// FeedMode selects the feed composition strategy.
type FeedMode int

const (
	// ModePersonalized blends similarity, trending, and freshness.
	ModePersonalized FeedMode = iota
	// ModeExplore emphasizes discovery over personalization.
	ModeExplore
)

// String returns a human-readable mode name.
func (m FeedMode) String() string {
	switch m {
	case ModePersonalized:
		return "personalized"
	case ModeExplore:
		return "explore"
	default:
		return "unknown"
	}
}

// FeedRequest is a request for a ranked feed.
type FeedRequest struct {
	// UserID is the reader.
	UserID int64 `json:"user_id"`

	// K is the number of articles requested. Defaults applied by the engine.
	K int `json:"k,omitempty"`

	// ExcludeSeen removes already-viewed articles.
	ExcludeSeen bool `json:"exclude_seen"`

	// Mode selects the composition strategy.
	Mode FeedMode `json:"mode,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// FeedResponse is a ranked feed with diagnostics.
type FeedResponse struct {
	// Items is the ordered ranked list.
	Items []Recommendation `json:"items"`

	// TotalCandidates is the number of candidates considered pre-diversity.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and provenance.
	Metadata FeedMetadata `json:"metadata"`
}

// FeedMetadata carries timing and diagnostic information for a feed.
type FeedMetadata struct {
	RequestID       string    `json:"request_id"`
	UserID          int64     `json:"user_id"`
	Mode            string    `json:"mode"`
	SignalsUsed     []string  `json:"signals_used"`
	LatencyMS       int64     `json:"latency_ms"`
	CacheHit        bool      `json:"cache_hit"`
	Personalized    bool      `json:"personalized"`
	BackfillUsed    bool      `json:"backfill_used"`
	SnapshotVersion int64     `json:"snapshot_version"`
	Timestamp       time.Time `json:"timestamp"`
}

// ArticleStore is the read-only article query surface provided by the
// ingestion/persistence collaborator.
type ArticleStore interface {
	// RecentArticles returns articles published at or after since, newest
	// first, capped at limit. A zero since means no cutoff.
	RecentArticles(ctx context.Context, since time.Time, limit int) ([]Article, error)

	// Article returns a single article by ID.
	Article(ctx context.Context, id int64) (Article, error)

	// ArticlesByID returns the subset of the given articles that exist.
	ArticlesByID(ctx context.Context, ids []int64) (map[int64]Article, error)

	// ArticlesByCategories returns recent articles in any of the given
	// categories, newest first. Empty categories means all categories.
	ArticlesByCategories(ctx context.Context, categories []string, since time.Time, limit int) ([]Article, error)
}

// InteractionStore is the read-only interaction query surface.
type InteractionStore interface {
	// RecentByUser returns the user's most recent interactions, newest
	// first, capped at limit.
	RecentByUser(ctx context.Context, userID int64, limit int) ([]Interaction, error)

	// ByUserSince returns all of the user's interactions since the cutoff.
	ByUserSince(ctx context.Context, userID int64, since time.Time) ([]Interaction, error)

	// Since returns all interactions at or after the cutoff, any user.
	Since(ctx context.Context, since time.Time) ([]Interaction, error)

	// ViewedArticleIDs returns IDs of articles the user has viewed.
	ViewedArticleIDs(ctx context.Context, userID int64) ([]int64, error)

	// ActiveUserIDs returns users with at least one interaction since the
	// cutoff.
	ActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)
}

// PreferenceStore is the read/write preference record surface. Writes are
// performed only by the preference analyzer and are eventually consistent.
type PreferenceStore interface {
	// Preferences returns the user's preference record. The second return
	// is false when no record exists; that is not an error.
	Preferences(ctx context.Context, userID int64) (PreferenceRecord, bool, error)

	// SavePreferences replaces the user's preference record.
	SavePreferences(ctx context.Context, rec PreferenceRecord) error
}

// Reranker modifies a ranked list for diversity or other objectives.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank reorders or filters scored items, returning up to k.
	Rerank(ctx context.Context, items []Recommendation, k int) []Recommendation
}
