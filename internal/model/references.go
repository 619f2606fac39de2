package model

import "github.com/sariola/notion2prompt/internal/id"

// ReferenceKind says what kind of object a reference points at.
type ReferenceKind int

const (
	RefPage ReferenceKind = iota
	RefDatabase
	RefUnknown
)

// ReferenceOrigin says where in the block a reference was discovered.
type ReferenceOrigin int

const (
	OriginLinkToPage ReferenceOrigin = iota
	OriginRichTextMention
	OriginChildDatabase
)

// Reference is a cross-reference discovered inside a block.
type Reference struct {
	ID     id.ID
	Kind   ReferenceKind
	Origin ReferenceOrigin
}

// References extracts the cross-references a block carries: link-to-page
// targets and page/database mentions in its rich text. Child databases are
// deliberately excluded; the fetcher resolves those through a dedicated
// step so they are never fetched twice.
func References(b Block) []Reference {
	var refs []Reference

	if link, ok := b.(*LinkToPageBlock); ok {
		refs = append(refs, Reference{ID: link.PageID, Kind: RefPage, Origin: OriginLinkToPage})
	}

	for _, rt := range TextOf(b) {
		if rt.Mention == nil {
			continue
		}
		switch {
		case rt.Mention.Page != nil:
			if pageID, err := id.Parse(rt.Mention.Page.ID); err == nil {
				refs = append(refs, Reference{ID: pageID, Kind: RefPage, Origin: OriginRichTextMention})
			}
		case rt.Mention.Database != nil:
			if dbID, err := id.Parse(rt.Mention.Database.ID); err == nil {
				refs = append(refs, Reference{ID: dbID, Kind: RefDatabase, Origin: OriginRichTextMention})
			}
		}
	}

	return refs
}

// Linkable reports whether a block can yield references worth following.
func Linkable(b Block) bool {
	switch b.(type) {
	case *LinkToPageBlock, *ChildDatabaseBlock:
		return true
	}
	for _, rt := range TextOf(b) {
		if rt.Mention != nil && (rt.Mention.Page != nil || rt.Mention.Database != nil) {
			return true
		}
	}
	return false
}
