package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sariola/notion2prompt/internal/model"
)

func blockItem(blockID string) string {
	return fmt.Sprintf(`{"object":"block","id":"%s","type":"paragraph","has_children":false,"archived":false,
		"paragraph":{"rich_text":[],"color":"default"}}`, blockID)
}

func pageItem(pageID, dueDate string) string {
	due := "null"
	if dueDate != "" {
		due = fmt.Sprintf(`{"start":"%s"}`, dueDate)
	}
	return fmt.Sprintf(`{"object":"page","id":"%s","url":"","archived":false,
		"parent":{"type":"database_id","database_id":"44444444-4444-4444-4444-444444444444"},
		"properties":{
			"Name":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"row"},"plain_text":"row"}]},
			"Due":{"id":"d","type":"date","date":%s}
		}}`, pageID, due)
}

func TestRetrieveChildren_Paginates(t *testing.T) {
	var cursors []string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("start_cursor")
		cursors = append(cursors, cursor)
		if got := r.URL.Query().Get("page_size"); got != "100" {
			t.Errorf("page_size = %q", got)
		}
		switch cursor {
		case "":
			fmt.Fprintf(w, `{"object":"list","results":[%s],"next_cursor":"c2","has_more":true}`,
				blockItem("11111111-1111-4111-8111-111111111111"))
		case "c2":
			fmt.Fprintf(w, `{"object":"list","results":[%s],"next_cursor":null,"has_more":false}`,
				blockItem("22222222-2222-4222-8222-222222222222"))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))

	blocks, err := client.RetrieveChildren(context.Background(), mustID(t, "33333333333343338333333333333333"))
	if err != nil {
		t.Fatalf("RetrieveChildren failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	if len(cursors) != 2 || cursors[1] != "c2" {
		t.Errorf("cursors = %v", cursors)
	}
	// API order is preserved.
	if blocks[0].Common().ID != "11111111111141118111111111111111" {
		t.Errorf("first block = %s", blocks[0].Common().ID)
	}
}

func TestQueryRows_PaginatesAndSorts(t *testing.T) {
	var bodies []map[string]any
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		if _, ok := body["start_cursor"]; !ok {
			fmt.Fprintf(w, `{"object":"list","results":[%s,%s],"next_cursor":"n1","has_more":true}`,
				pageItem("11111111-1111-4111-8111-111111111111", "2023-01-15"),
				pageItem("22222222-2222-4222-8222-222222222222", ""))
		} else {
			fmt.Fprintf(w, `{"object":"list","results":[%s],"next_cursor":null,"has_more":false}`,
				pageItem("33333333-3333-4333-8333-333333333333", "2024-06-01"))
		}
	}))

	dbID := mustID(t, "44444444444444444444444444444444")
	rows, err := client.QueryRows(context.Background(), dbID)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}

	if got := bodies[0]["page_size"].(float64); got != 100 {
		t.Errorf("page_size = %v", got)
	}
	if got := bodies[1]["start_cursor"]; got != "n1" {
		t.Errorf("second request cursor = %v", got)
	}

	// Newest first, dateless rows at the bottom.
	wantOrder := []string{
		"33333333333343338333333333333333",
		"11111111111141118111111111111111",
		"22222222222242228222222222222222",
	}
	for i, want := range wantOrder {
		if rows[i].ID.String() != want {
			t.Errorf("row %d = %s, want %s", i, rows[i].ID, want)
		}
	}

	// Every row's parent is the queried database.
	for _, row := range rows {
		if row.Parent == nil || row.Parent.Type != "database_id" ||
			row.Parent.DatabaseID != dbID {
			t.Errorf("row %s parent = %+v, want database %s", row.ID, row.Parent, dbID)
		}
	}
}

func TestCollectBlockPages_KeepsRawBodies(t *testing.T) {
	responses := []string{
		fmt.Sprintf(`{"object":"list","results":[%s],"next_cursor":"x","has_more":true}`,
			blockItem("11111111-1111-4111-8111-111111111111")),
		`{"object":"list","results":[],"next_cursor":null,"has_more":false}`,
	}
	var call int
	fetch := func(ctx context.Context, cursor string) ([]byte, error) {
		body := responses[call]
		call++
		return []byte(body), nil
	}

	blocks, raw, err := CollectBlockPages(context.Background(), fetch)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || len(raw) != 2 {
		t.Errorf("blocks=%d raw=%d", len(blocks), len(raw))
	}
	if raw[0] != responses[0] || raw[1] != responses[1] {
		t.Error("raw bodies should be preserved byte for byte")
	}
}

func TestSortPagesByDateDesc_FallbackProperties(t *testing.T) {
	earlier := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// No native date properties; created_time is the fallback key.
	pages := []*model.Page{
		{ID: "11111111111141118111111111111111", Properties: map[string]model.PropertyValue{
			"Created": {Type: "created_time", CreatedTime: &earlier},
		}},
		{ID: "22222222222242228222222222222222", Properties: map[string]model.PropertyValue{
			"Created": {Type: "created_time", CreatedTime: &later},
		}},
	}
	SortPagesByDateDesc(pages)
	if pages[0].ID != "22222222222242228222222222222222" {
		t.Errorf("expected later page first, got %s", pages[0].ID)
	}
}

func TestSortPagesByDateDesc_NoDates(t *testing.T) {
	pages := []*model.Page{
		{ID: "11111111111141118111111111111111", Properties: map[string]model.PropertyValue{}},
		{ID: "22222222222242228222222222222222", Properties: map[string]model.PropertyValue{}},
	}
	SortPagesByDateDesc(pages)
	if pages[0].ID != "11111111111141118111111111111111" {
		t.Error("order should be untouched when no date property exists")
	}
}
