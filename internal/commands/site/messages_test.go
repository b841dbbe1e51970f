package sitecmd

import (
	"testing"

	"github.com/goliatone/go-sitekit/internal/styles"
)

func TestMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "refresh all", msg: RefreshNavigationCommand{}},
		{name: "refresh language too long", msg: RefreshNavigationCommand{Language: "abcdefghijklmnopq"}, wantErr: true},
		{name: "invalidate page", msg: InvalidateContentCommand{PageID: 4, Language: "en"}},
		{name: "invalidate negative page", msg: InvalidateContentCommand{PageID: -1}, wantErr: true},
		{name: "import", msg: ImportContentCommand{Directory: "content"}},
		{name: "import blank directory", msg: ImportContentCommand{Directory: "  "}, wantErr: true},
		{name: "preview", msg: SetPreviewCommand{Keyword: "about", Nodes: []*styles.Node{}}},
		{name: "preview nil nodes", msg: SetPreviewCommand{Keyword: "about"}, wantErr: true},
		{name: "preview bad keyword", msg: SetPreviewCommand{Keyword: "-about", Nodes: []*styles.Node{}}, wantErr: true},
		{name: "clear preview", msg: ClearPreviewCommand{Keyword: "about"}},
		{name: "clear preview missing keyword", msg: ClearPreviewCommand{}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestMessageTypes(t *testing.T) {
	types := map[string]string{
		RefreshNavigationCommand{}.Type(): refreshNavigationMessageType,
		InvalidateContentCommand{}.Type(): invalidateContentMessageType,
		ImportContentCommand{}.Type():     importContentMessageType,
		SetPreviewCommand{}.Type():        setPreviewMessageType,
		ClearPreviewCommand{}.Type():      clearPreviewMessageType,
	}
	if len(types) != 5 {
		t.Fatalf("expected five distinct message types, got %v", types)
	}
}
