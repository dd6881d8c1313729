// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFeedRequest(t *testing.T) {
	before := testutil.ToFloat64(FeedRequestsTotal.WithLabelValues("personalized", "true"))
	backfillsBefore := testutil.ToFloat64(FeedBackfills)

	RecordFeedRequest("personalized", true, false, 25*time.Millisecond)
	RecordFeedRequest("personalized", true, true, 25*time.Millisecond)

	after := testutil.ToFloat64(FeedRequestsTotal.WithLabelValues("personalized", "true"))
	if after-before != 2 {
		t.Errorf("feed requests delta = %f, want 2", after-before)
	}
	if delta := testutil.ToFloat64(FeedBackfills) - backfillsBefore; delta != 1 {
		t.Errorf("backfills delta = %f, want 1", delta)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("feed"))
	missesBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("feed"))

	RecordCacheLookup("feed", true)
	RecordCacheLookup("feed", false)
	RecordCacheLookup("feed", false)

	if delta := testutil.ToFloat64(CacheHits.WithLabelValues("feed")) - hitsBefore; delta != 1 {
		t.Errorf("hits delta = %f, want 1", delta)
	}
	if delta := testutil.ToFloat64(CacheMisses.WithLabelValues("feed")) - missesBefore; delta != 2 {
		t.Errorf("misses delta = %f, want 2", delta)
	}
}

func TestRecordCorpusRebuild(t *testing.T) {
	RecordCorpusRebuild(3*time.Second, 1200, 4800, 7)

	if got := testutil.ToFloat64(CorpusArticles); got != 1200 {
		t.Errorf("CorpusArticles = %f, want 1200", got)
	}
	if got := testutil.ToFloat64(CorpusVocabulary); got != 4800 {
		t.Errorf("CorpusVocabulary = %f, want 4800", got)
	}
	if got := testutil.ToFloat64(CorpusVersion); got != 7 {
		t.Errorf("CorpusVersion = %f, want 7", got)
	}
}

func TestRecordAnalyzerRun(t *testing.T) {
	okBefore := testutil.ToFloat64(AnalyzerRuns.WithLabelValues("success"))
	errBefore := testutil.ToFloat64(AnalyzerRuns.WithLabelValues("error"))

	RecordAnalyzerRun(time.Second, nil)
	RecordAnalyzerRun(time.Second, errors.New("store unavailable"))

	if delta := testutil.ToFloat64(AnalyzerRuns.WithLabelValues("success")) - okBefore; delta != 1 {
		t.Errorf("success delta = %f, want 1", delta)
	}
	if delta := testutil.ToFloat64(AnalyzerRuns.WithLabelValues("error")) - errBefore; delta != 1 {
		t.Errorf("error delta = %f, want 1", delta)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200"))

	RecordAPIRequest("GET", "/api/v1/feed", 200, 12*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200"))
	if after-before != 1 {
		t.Errorf("api requests delta = %f, want 1", after-before)
	}
}

func TestRecordInteraction(t *testing.T) {
	before := testutil.ToFloat64(InteractionsRecorded.WithLabelValues("like"))
	RecordInteraction("like")
	if delta := testutil.ToFloat64(InteractionsRecorded.WithLabelValues("like")) - before; delta != 1 {
		t.Errorf("interactions delta = %f, want 1", delta)
	}
}
