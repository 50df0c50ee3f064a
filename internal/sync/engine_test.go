package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"arena-tracker/internal/champions"
	"arena-tracker/internal/constants"
	"arena-tracker/internal/domain"
	"arena-tracker/internal/riot"

	"github.com/rs/zerolog"
)

const testPuuid = "puuid-me"

// fakeSource serves scripted id pages and match details.
type fakeSource struct {
	pages      [][]string
	details    map[string]*riot.MatchDetail
	detailErrs map[string]error

	listCalls   int
	detailCalls int

	// onDetail, when set, runs before each detail fetch.
	onDetail func(matchID string)
}

func (f *fakeSource) ListMatchIDs(_ context.Context, _ string, start, count int) ([]string, error) {
	f.listCalls++
	page := start / count
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

func (f *fakeSource) GetMatchDetail(ctx context.Context, matchID string) (*riot.MatchDetail, error) {
	f.detailCalls++
	if f.onDetail != nil {
		f.onDetail(matchID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.detailErrs[matchID]; ok {
		return nil, err
	}
	d, ok := f.details[matchID]
	if !ok {
		return nil, riot.ErrNotFound
	}
	return d, nil
}

func arenaMatch(id string, ts int64, champion string, placement int) *riot.MatchDetail {
	return &riot.MatchDetail{
		Metadata: riot.MatchMetadata{MatchID: id},
		Info: riot.MatchInfo{
			GameCreation: ts,
			GameMode:     "CHERRY",
			Participants: []riot.Participant{
				{Puuid: testPuuid, RiotIDGameName: "Me", ChampionName: champion, Placement: placement, PlayerSubteamID: 1},
				{Puuid: "puuid-mate", RiotIDGameName: "Mate", ChampionName: "Jinx", Placement: placement, PlayerSubteamID: 1},
			},
		},
	}
}

func otherModeMatch(id string, ts int64) *riot.MatchDetail {
	d := arenaMatch(id, ts, "Lux", 3)
	d.Info.GameMode = "ARAM"
	return d
}

func newTestEngine(source *fakeSource) *Engine {
	return NewEngine(source, champions.NewCatalog(), zerolog.Nop())
}

func linkedAccount(watermark int64) domain.PlayerAccount {
	return domain.PlayerAccount{
		PlayerID:          "player-1",
		DisplayName:       "Player One",
		RiotName:          "Player",
		RiotTag:           "EUW",
		Puuid:             testPuuid,
		LastSyncWatermark: watermark,
	}
}

// buildPages fills the source with n arena matches newest-first, starting
// at ts base and descending by step, split into pages of MatchPageSize.
func buildPages(n int, base, step int64) *fakeSource {
	source := &fakeSource{
		details:    make(map[string]*riot.MatchDetail),
		detailErrs: make(map[string]error),
	}
	var page []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("EUW1_%d", n-i)
		ts := base - int64(i)*step
		source.details[id] = arenaMatch(id, ts, fmt.Sprintf("Champ%d", i), 1)
		page = append(page, id)
		if len(page) == constants.MatchPageSize {
			source.pages = append(source.pages, page)
			page = nil
		}
	}
	if len(page) > 0 {
		source.pages = append(source.pages, page)
	}
	return source
}

func TestSyncPaginationTermination(t *testing.T) {
	// 3 full pages, then an empty one.
	source := buildPages(3*constants.MatchPageSize, 1715000000000, 1000)
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(0), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if source.listCalls != 4 {
		t.Errorf("list calls = %d, want 4 (3 pages + terminal empty page)", source.listCalls)
	}
	if len(res.Records) != 3*constants.MatchPageSize {
		t.Errorf("records = %d, want %d", len(res.Records), 3*constants.MatchPageSize)
	}
	if res.NewWatermark != 1715000000000 {
		t.Errorf("watermark = %d, want newest match timestamp", res.NewWatermark)
	}
}

func TestSyncRefreshWithNoNewMatches(t *testing.T) {
	newest := int64(1715000000000)
	source := buildPages(constants.MatchPageSize, newest, 1000)

	known := make(map[string]bool)
	for id := range source.details {
		known[id] = true
	}

	engine := newTestEngine(source)
	res, err := engine.Sync(context.Background(), linkedAccount(newest), known)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if source.listCalls != 1 {
		t.Errorf("list calls = %d, want 1 (stop after first page crosses watermark)", source.listCalls)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %d, want 0", len(res.Records))
	}
	if res.NewWatermark != newest {
		t.Errorf("watermark = %d, want unchanged %d", res.NewWatermark, newest)
	}
}

func TestSyncEmptyHistory(t *testing.T) {
	source := &fakeSource{}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(0), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %d, want 0", len(res.Records))
	}
	if res.NewWatermark != constants.ArenaReleaseEpochMs {
		t.Errorf("watermark = %d, want backfill epoch", res.NewWatermark)
	}
	if source.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", source.listCalls)
	}
}

func TestSyncSkipsOtherModesButAdvancesWatermark(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m2", "m1"}},
		details: map[string]*riot.MatchDetail{
			"m2": otherModeMatch("m2", 3000),
			"m1": arenaMatch("m1", 2000, "Ahri", 1),
		},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].MatchID != "m1" {
		t.Fatalf("records = %+v, want only m1", res.Records)
	}
	// The ARAM game's timestamp still moves the watermark: it occupies a
	// chronological slot even though it is never stored.
	if res.NewWatermark != 3000 {
		t.Errorf("watermark = %d, want 3000", res.NewWatermark)
	}
}

func TestSyncUnavailableDetailHoldsWatermarkBack(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m3", "m2", "m1"}},
		details: map[string]*riot.MatchDetail{
			"m3": arenaMatch("m3", 4000, "Ahri", 1),
			"m1": arenaMatch("m1", 2000, "Lux", 1),
		},
		detailErrs: map[string]error{"m2": riot.ErrUnavailable},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("records = %d, want 2 (m3 and m1)", len(res.Records))
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "m2" {
		t.Errorf("skipped = %v, want [m2]", res.Skipped)
	}
	// m2 (ts 3000) must fall inside the next sync's window, so the
	// watermark is capped at m1's timestamp, not m3's.
	if res.NewWatermark != 2000 {
		t.Errorf("watermark = %d, want 2000", res.NewWatermark)
	}
}

func TestSyncSkipWithNothingOlderDoesNotAdvance(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m2", "m1"}},
		details: map[string]*riot.MatchDetail{
			"m2": arenaMatch("m2", 3000, "Ahri", 1),
		},
		detailErrs: map[string]error{"m1": riot.ErrUnavailable},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if res.NewWatermark != 1000 {
		t.Errorf("watermark = %d, want unchanged 1000", res.NewWatermark)
	}
}

func TestSyncNotFoundDetailDoesNotHoldWatermark(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m2", "gone"}},
		details: map[string]*riot.MatchDetail{
			"m2": arenaMatch("m2", 3000, "Ahri", 1),
		},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "gone" {
		t.Errorf("skipped = %v, want [gone]", res.Skipped)
	}
	// A purged match can never be fetched again; it must not pin the
	// watermark forever.
	if res.NewWatermark != 3000 {
		t.Errorf("watermark = %d, want 3000", res.NewWatermark)
	}
}

func TestSyncDedupesAgainstKnownIDs(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m2", "m1"}},
		details: map[string]*riot.MatchDetail{
			"m2": arenaMatch("m2", 3000, "Ahri", 1),
			"m1": arenaMatch("m1", 2000, "Lux", 1),
		},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), map[string]bool{"m1": true})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].MatchID != "m2" {
		t.Errorf("records = %+v, want only m2", res.Records)
	}
}

func TestSyncStopsOnOutOfOrderHistory(t *testing.T) {
	source := &fakeSource{
		pages: [][]string{{"m1", "m2"}},
		details: map[string]*riot.MatchDetail{
			"m1": arenaMatch("m1", 5000, "Ahri", 1),
			"m2": arenaMatch("m2", 6000, "Lux", 1), // newer than its predecessor
		},
	}
	engine := newTestEngine(source)

	res, err := engine.Sync(context.Background(), linkedAccount(1000), nil)
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if source.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", source.listCalls)
	}
	if len(res.Records) != 1 || res.Records[0].MatchID != "m1" {
		t.Errorf("records = %+v, want only m1 (walk stops at the violation)", res.Records)
	}
}

func TestSyncDeadlineKeepsCompletedPages(t *testing.T) {
	source := buildPages(2*constants.MatchPageSize, 1715000000000, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel as soon as the second page's first detail is requested.
	firstOfPage2 := source.pages[1][0]
	source.onDetail = func(matchID string) {
		if matchID == firstOfPage2 {
			cancel()
		}
	}

	engine := newTestEngine(source)
	res, err := engine.Sync(ctx, linkedAccount(0), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("partial result must still be returned")
	}
	if len(res.Records) != constants.MatchPageSize {
		t.Errorf("records = %d, want the first full page only", len(res.Records))
	}
	// The watermark must cover the completed first page and nothing of the
	// aborted second page.
	if res.NewWatermark != 1715000000000 {
		t.Errorf("watermark = %d, want newest of page 1", res.NewWatermark)
	}
}

func TestSyncUnlinkedAccount(t *testing.T) {
	engine := newTestEngine(&fakeSource{})
	account := linkedAccount(0)
	account.Puuid = ""

	if _, err := engine.Sync(context.Background(), account, nil); err == nil {
		t.Fatal("Sync on an unlinked account must fail")
	}
}
