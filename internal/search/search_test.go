package search

import (
	"testing"

	"github.com/spravodaj/spravodaj/internal/store"
)

func TestIndexAndSearch(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	articles := []store.Article{
		{ID: "a1", Title: "Vlada schvalila rozpocet", Summary: "Kabinet odsuhlasil navrh statneho rozpoctu.", Category: "politika", Tags: []string{"rozpocet"}},
		{ID: "a2", Title: "Hokejisti postupili do finale", Summary: "Slovenski hokejisti zdolali Finsko.", Category: "sport", Tags: []string{"hokej"}},
	}
	for _, a := range articles {
		if err := idx.Index(a); err != nil {
			t.Fatalf("Index %s: %v", a.ID, err)
		}
	}

	hits, err := idx.Search("rozpocet", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ArticleID != "a1" {
		t.Fatalf("hits = %+v, want a1 only", hits)
	}

	hits, err = idx.Search("hokejisti", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ArticleID != "a2" {
		t.Fatalf("hits = %+v, want a2 only", hits)
	}
}

func TestIndexReplacesDocument(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := idx.Index(store.Article{ID: "a1", Title: "Stary titulok", Summary: "povodny obsah"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Index(store.Article{ID: "a1", Title: "Novy titulok", Summary: "aktualizovany obsah"}); err != nil {
		t.Fatalf("Index: %v", err)
	}

	hits, err := idx.Search("aktualizovany", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("updated document should be findable, hits = %+v", hits)
	}
	hits, err = idx.Search("povodny", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("old content should be gone, hits = %+v", hits)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	hits, err := idx.Search("cokolvek", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}
