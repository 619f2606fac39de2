package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/sariola/notion2prompt/internal/id"
	"github.com/sariola/notion2prompt/internal/model"
	"github.com/sariola/notion2prompt/internal/notion"
)

var errForTest = errors.New("test error")

// fakeRepo is an in-memory Repository for driving fetcher scenarios.
type fakeRepo struct {
	mu    sync.Mutex
	calls []string

	pages     map[id.ID]*model.Page
	databases map[id.ID]*model.Database
	blocks    map[id.ID]model.Block
	children  map[id.ID][]model.Block
	rows      map[id.ID][]*model.Page

	dbErrors  map[id.ID]error
	rowErrors map[id.ID]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pages:     make(map[id.ID]*model.Page),
		databases: make(map[id.ID]*model.Database),
		blocks:    make(map[id.ID]model.Block),
		children:  make(map[id.ID][]model.Block),
		rows:      make(map[id.ID][]*model.Page),
		dbErrors:  make(map[id.ID]error),
		rowErrors: make(map[id.ID]error),
	}
}

func (r *fakeRepo) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *fakeRepo) called(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func notFoundErr(objType string) *notion.APIError {
	return &notion.APIError{
		StatusCode: http.StatusNotFound,
		Response: &notion.ErrorResponse{
			Status: 404, Code: notion.CodeObjectNotFound,
			Message: "Could not find " + objType,
		},
	}
}

func (r *fakeRepo) RetrievePage(_ context.Context, pageID id.ID) (*model.Page, error) {
	r.record("page:" + string(pageID))
	if page, ok := r.pages[pageID]; ok {
		return page, nil
	}
	return nil, notFoundErr("page")
}

func (r *fakeRepo) RetrieveDatabase(_ context.Context, dbID id.ID) (*model.Database, error) {
	r.record("db:" + string(dbID))
	if err, ok := r.dbErrors[dbID]; ok {
		return nil, err
	}
	if db, ok := r.databases[dbID]; ok {
		return db, nil
	}
	return nil, notFoundErr("database")
}

func (r *fakeRepo) RetrieveBlock(_ context.Context, blockID id.ID) (model.Block, error) {
	r.record("block:" + string(blockID))
	if block, ok := r.blocks[blockID]; ok {
		return block, nil
	}
	return nil, notFoundErr("block")
}

func (r *fakeRepo) RetrieveChildren(_ context.Context, parentID id.ID) ([]model.Block, error) {
	r.record("children:" + string(parentID))
	return r.children[parentID], nil
}

func (r *fakeRepo) QueryRows(_ context.Context, dbID id.ID) ([]*model.Page, error) {
	r.record("rows:" + string(dbID))
	if err, ok := r.rowErrors[dbID]; ok {
		return nil, err
	}
	rows := append([]*model.Page(nil), r.rows[dbID]...)
	notion.SortPagesByDateDesc(rows)
	return rows, nil
}

// Test fixtures.

const (
	hostID   = id.ID("aaaaaaaaaaaa4aaa8aaaaaaaaaaaaaa1")
	childID  = id.ID("bbbbbbbbbbbb4bbb8bbbbbbbbbbbbbb2")
	otherID  = id.ID("cccccccccccc4ccc8cccccccccccccc3")
	extraID  = id.ID("dddddddddddd4ddd8dddddddddddddd4")
	sourceID = id.ID("8e2801e817054f25ae287572a069c873")
)

func fixturePage(pageID id.ID, title string) *model.Page {
	return &model.Page{ID: pageID, Title: title, Properties: map[string]model.PropertyValue{}}
}

func fixtureRow(pageID id.ID, due string) *model.Page {
	props := map[string]model.PropertyValue{
		"Name": {Type: "title", Title: []model.RichText{{PlainText: "row"}}},
	}
	if due != "" {
		props["Due"] = model.PropertyValue{Type: "date", Date: &model.DateValue{Start: due}}
	}
	return &model.Page{ID: pageID, Title: "row", Properties: props}
}

func fixtureChildDBBlock(blockID id.ID, title string) *model.ChildDatabaseBlock {
	return &model.ChildDatabaseBlock{
		BlockCommon: model.BlockCommon{ID: blockID, Type: "child_database"},
		Title:       title,
	}
}

func fixtureDatabase(dbID id.ID, title string) *model.Database {
	return &model.Database{
		ID:         dbID,
		Title:      []model.RichText{{PlainText: title}},
		Properties: map[string]model.PropertySchema{"Name": {Type: "title"}},
	}
}

func runFetch(t *testing.T, repo *fakeRepo, opts Options, rootID id.ID) *Result {
	t.Helper()
	result, err := New(repo, opts).FetchRecursive(context.Background(), rootID)
	if err != nil {
		t.Fatalf("FetchRecursive failed: %v", err)
	}
	return result
}

func rootChildDBBlock(t *testing.T, result *Result) *model.ChildDatabaseBlock {
	t.Helper()
	page, ok := result.Object.(*model.Page)
	if !ok {
		t.Fatalf("root type = %T", result.Object)
	}
	if len(page.Blocks) != 1 {
		t.Fatalf("page has %d blocks, want 1", len(page.Blocks))
	}
	cdb, ok := page.Blocks[0].(*model.ChildDatabaseBlock)
	if !ok {
		t.Fatalf("block type = %T", page.Blocks[0])
	}
	return cdb
}

// Scenario: a page with one inline child database. The block's content is
// fetched and rows come back date-descending.
func TestFetch_InlineChildDatabase(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Tasks")}
	repo.databases[childID] = fixtureDatabase(childID, "Tasks")
	repo.rows[childID] = []*model.Page{
		fixtureRow(otherID, "2023-01-15"),
		fixtureRow(sourceID, "2024-06-01"),
	}

	result := runFetch(t, repo, Options{Depth: 5, Limit: 1000}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseFetched {
		t.Fatalf("state = %v, want fetched", cdb.Content.State)
	}
	db := cdb.Content.Database
	if db == nil || len(db.Pages) != 2 {
		t.Fatalf("embedded db = %+v", db)
	}
	if db.Pages[0].ID != sourceID {
		t.Errorf("rows not date-descending: first = %s", db.Pages[0].ID)
	}
}

// Scenario: retrieve-database fails with a linked-database validation
// error, but query_rows succeeds. The block carries a database synthesized
// with an inferred schema.
func TestFetch_LinkedDatabaseQueryFallback(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Linked View")}
	repo.dbErrors[childID] = &notion.APIError{
		StatusCode: http.StatusBadRequest,
		Response: &notion.ErrorResponse{
			Status: 400, Code: notion.CodeValidationError,
			Message: "Cannot fetch a linked database from the API",
		},
	}
	repo.rows[childID] = []*model.Page{
		fixtureRow(otherID, "2023-01-01"),
		fixtureRow(sourceID, "2023-02-01"),
		fixtureRow(extraID, ""),
	}

	result := runFetch(t, repo, Options{Depth: 5, Limit: 1000}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseFetched {
		t.Fatalf("state = %v, want fetched via fallback", cdb.Content.State)
	}
	db := cdb.Content.Database
	if len(db.Pages) != 3 {
		t.Fatalf("rows = %d", len(db.Pages))
	}
	if db.Properties["Due"].Type != "date" {
		t.Errorf("inferred schema = %+v", db.Properties)
	}
	if db.Properties["Name"].Type != "title" {
		t.Errorf("inferred schema missing title: %+v", db.Properties)
	}
}

// Scenario: the linked-database query fails with object_not_found naming
// the source database. The retry is futile and is not attempted; the
// block ends up LinkedDatabase.
func TestFetch_LinkedDatabaseSourceNotShared(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Linked View")}
	repo.dbErrors[childID] = &notion.APIError{
		StatusCode: http.StatusBadRequest,
		Response: &notion.ErrorResponse{
			Status: 400, Code: notion.CodeValidationError,
			Message: "Cannot fetch a linked database from the API",
		},
	}
	repo.rowErrors[childID] = &notion.APIError{
		StatusCode: http.StatusNotFound,
		Response: &notion.ErrorResponse{
			Status: 404, Code: notion.CodeObjectNotFound,
			Message: "Could not find database with ID: 8e2801e8-1705-4f25-ae28-7572a069c873.",
		},
	}
	repo.blocks[childID] = fixtureChildDBBlock(childID, "Linked View")

	result := runFetch(t, repo, Options{Depth: 5, Limit: 1000}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseLinked {
		t.Fatalf("state = %v, want linked", cdb.Content.State)
	}
	if repo.called("rows:" + string(sourceID)) {
		t.Error("retry against the source database should not happen on not-found")
	}
}

// Scenario: the query error names a source database and is not a
// not-found; the retry against the source succeeds.
func TestFetch_LinkedDatabaseSourceRetry(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Linked View")}
	repo.dbErrors[childID] = &notion.APIError{
		StatusCode: http.StatusBadRequest,
		Response: &notion.ErrorResponse{
			Status: 400, Code: notion.CodeValidationError,
			Message: "Cannot fetch a linked database from the API",
		},
	}
	repo.rowErrors[childID] = &notion.APIError{
		StatusCode: http.StatusBadRequest,
		Response: &notion.ErrorResponse{
			Status: 400, Code: notion.CodeValidationError,
			Message: "Could not find database with ID: 8e2801e8-1705-4f25-ae28-7572a069c873.",
		},
	}
	repo.rows[sourceID] = []*model.Page{fixtureRow(otherID, "2023-05-01")}

	result := runFetch(t, repo, Options{Depth: 5, Limit: 1000}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseFetched {
		t.Fatalf("state = %v, want fetched via source retry", cdb.Content.State)
	}
	if len(cdb.Content.Database.Pages) != 1 {
		t.Errorf("rows = %d", len(cdb.Content.Database.Pages))
	}
	if !repo.called("rows:" + string(sourceID)) {
		t.Error("expected a retry against the source database")
	}
}

// Scenario: permission denied. The block is Inaccessible with the
// classified reason.
func TestFetch_PermissionDenied(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Secret")}
	repo.dbErrors[childID] = &notion.APIError{
		StatusCode: http.StatusForbidden,
		Response: &notion.ErrorResponse{
			Status: 403, Code: notion.CodeRestrictedResource,
			Message: "The integration does not have access",
		},
	}
	repo.blocks[childID] = fixtureChildDBBlock(childID, "Secret")

	result := runFetch(t, repo, Options{Depth: 5, Limit: 1000}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseInaccessible {
		t.Fatalf("state = %v, want inaccessible", cdb.Content.State)
	}
	if !strings.HasPrefix(cdb.Content.Reason, "restricted_resource:") {
		t.Errorf("reason = %q", cdb.Content.Reason)
	}
}

// Scenario: cycle protection. A links to B, B links back to A; the second
// encounter of A is recorded as already visited and the tree contains A
// exactly once.
func TestFetch_CycleProtection(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "A")
	repo.pages[childID] = fixturePage(childID, "B")
	repo.children[hostID] = []model.Block{
		&model.LinkToPageBlock{
			BlockCommon: model.BlockCommon{ID: otherID, Type: "link_to_page"},
			PageID:      childID,
		},
	}
	repo.children[childID] = []model.Block{
		&model.LinkToPageBlock{
			BlockCommon: model.BlockCommon{ID: sourceID, Type: "link_to_page"},
			PageID:      hostID,
		},
	}

	result := runFetch(t, repo, Options{Depth: 10, Limit: 1000}, hostID)

	page, ok := result.Object.(*model.Page)
	if !ok || page.ID != hostID {
		t.Fatalf("root = %+v", result.Object)
	}

	// A's page endpoint is called once: the back-reference from B to A was
	// skipped.
	var sawSkip bool
	for _, call := range repo.calls {
		if call == "page:"+string(hostID) {
			if sawSkip {
				t.Error("A fetched twice")
			}
			sawSkip = true
		}
	}
}

// Scenario: item limit. A database with more rows than the budget keeps
// exactly the budget and a warning is emitted.
func TestFetch_ItemLimit(t *testing.T) {
	const budget = 10
	repo := newFakeRepo()
	repo.databases[hostID] = fixtureDatabase(hostID, "Big")
	var rows []*model.Page
	for i := 0; i < 25; i++ {
		rowID, err := id.Parse(fmt.Sprintf("%032x", 0x1000+i))
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, fixtureRow(rowID, ""))
	}
	repo.rows[hostID] = rows

	result := runFetch(t, repo, Options{Depth: 5, Limit: budget}, hostID)

	db, ok := result.Object.(*model.Database)
	if !ok {
		t.Fatalf("root type = %T", result.Object)
	}
	if len(db.Pages) != budget {
		t.Errorf("rows = %d, want %d", len(db.Pages), budget)
	}

	var warned bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "item limit reached") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("warnings = %v, want item limit notice", result.Warnings)
	}
}

// Boundary: depth 0 without always_fetch_databases retrieves only the
// seed.
func TestFetch_DepthZero(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Tasks")}

	result := runFetch(t, repo, Options{Depth: 0, Limit: 1000}, hostID)

	page := result.Object.(*model.Page)
	if len(page.Blocks) != 0 {
		t.Errorf("page has %d blocks, want 0", len(page.Blocks))
	}
	if repo.called("children:" + string(hostID)) {
		t.Error("children should not be listed at depth 0")
	}
}

// Boundary: depth 0 with always_fetch_databases resolves the child
// database but collects no rows.
func TestFetch_DepthZeroAlwaysFetchDatabases(t *testing.T) {
	repo := newFakeRepo()
	repo.pages[hostID] = fixturePage(hostID, "Host")
	repo.children[hostID] = []model.Block{fixtureChildDBBlock(childID, "Tasks")}
	repo.databases[childID] = fixtureDatabase(childID, "Tasks")
	repo.rows[childID] = []*model.Page{fixtureRow(otherID, "")}

	result := runFetch(t, repo, Options{Depth: 0, Limit: 1000, AlwaysFetchDatabases: true}, hostID)
	cdb := rootChildDBBlock(t, result)

	if cdb.Content.State != model.ChildDatabaseFetched {
		t.Fatalf("state = %v, want fetched", cdb.Content.State)
	}
	if len(cdb.Content.Database.Pages) != 0 {
		t.Errorf("rows = %d, want 0 at depth 0", len(cdb.Content.Database.Pages))
	}
	if repo.called("rows:" + string(childID)) {
		t.Error("rows should not be queried at depth 0")
	}
}

// The database endpoint is tried first when the input URL hints a
// database view.
func TestFetch_DatabaseTypeHint(t *testing.T) {
	repo := newFakeRepo()
	repo.databases[hostID] = fixtureDatabase(hostID, "View")

	opts := Options{
		Depth: 1, Limit: 100,
		RawInput: "https://www.notion.so/View-" + string(hostID) + "?v=123",
	}
	result := runFetch(t, repo, opts, hostID)

	if _, ok := result.Object.(*model.Database); !ok {
		t.Fatalf("root type = %T", result.Object)
	}
	if repo.called("page:" + string(hostID)) {
		t.Error("page endpoint should be skipped when the URL hints a database")
	}
}

// Seed failure is fatal: no partial tree.
func TestFetch_SeedNotFound(t *testing.T) {
	repo := newFakeRepo()
	_, err := New(repo, Options{Depth: 3, Limit: 100}).FetchRecursive(context.Background(), hostID)
	if err == nil {
		t.Fatal("expected assembly failure for missing seed")
	}
}

func TestClassifyDatabaseFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want DBFailureKind
	}{
		{
			"linked database message",
			&notion.APIError{StatusCode: 400, Response: &notion.ErrorResponse{
				Code: notion.CodeValidationError, Message: "This is a linked database"}},
			FailureLinked,
		},
		{
			"not found",
			&notion.APIError{StatusCode: 404, Response: &notion.ErrorResponse{
				Code: notion.CodeObjectNotFound, Message: "gone"}},
			FailureNotFound,
		},
		{
			"restricted",
			&notion.APIError{StatusCode: 403, Response: &notion.ErrorResponse{
				Code: notion.CodeRestrictedResource, Message: "no access"}},
			FailurePermission,
		},
		{
			"unauthorized",
			&notion.APIError{StatusCode: 401, Response: &notion.ErrorResponse{
				Code: notion.CodeUnauthorized, Message: "bad token"}},
			FailurePermission,
		},
		{"other", errForTest, FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDatabaseFailure(tt.err); got.Kind != tt.want {
				t.Errorf("kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestExtractSourceDatabaseID(t *testing.T) {
	err := &notion.APIError{StatusCode: 404, Response: &notion.ErrorResponse{
		Code:    notion.CodeObjectNotFound,
		Message: "Could not find database with ID: 8e2801e8-1705-4f25-ae28-7572a069c873. Make sure it is shared.",
	}}
	got, ok := extractSourceDatabaseID(err)
	if !ok || got != sourceID {
		t.Errorf("extracted = %q, %v", got, ok)
	}

	if _, ok := extractSourceDatabaseID(errForTest); ok {
		t.Error("no ID should be extracted from an unrelated error")
	}
}

func TestInferSchemaFromPages(t *testing.T) {
	pages := []*model.Page{
		fixtureRow(hostID, "2023-01-01"),
		fixtureRow(childID, ""),
	}
	schema := inferSchemaFromPages(pages)
	if schema["Name"].Type != "title" {
		t.Errorf("Name = %+v", schema["Name"])
	}
	if schema["Due"].Type != "date" {
		t.Errorf("Due = %+v", schema["Due"])
	}
}
