package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTopicLookupArgs(t *testing.T) {
	t.Parallel()

	const id = "5f0c1c3e-8d7a-4c57-9a43-0b8e0c4f2a11"

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"debatepad"},
			want: []string{"debatepad"},
		},
		{
			name: "direct topic id first token",
			in:   []string{"debatepad", id},
			want: []string{"debatepad", "topics", "show", id},
		},
		{
			name: "direct topic id after value flag",
			in:   []string{"debatepad", "--api-url", "http://localhost:9000", id},
			want: []string{"debatepad", "--api-url", "http://localhost:9000", "topics", "show", id},
		},
		{
			name: "direct topic id after equals flag",
			in:   []string{"debatepad", "--format=edn", id},
			want: []string{"debatepad", "--format=edn", "topics", "show", id},
		},
		{
			name: "direct topic id after bool flag",
			in:   []string{"debatepad", "--pretty", id},
			want: []string{"debatepad", "--pretty", "topics", "show", id},
		},
		{
			name: "direct topic id after double dash",
			in:   []string{"debatepad", "--", id},
			want: []string{"debatepad", "--", "topics", "show", id},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"debatepad", "topics", "show", id},
			want: []string{"debatepad", "topics", "show", id},
		},
		{
			name: "non-uuid token not rewritten",
			in:   []string{"debatepad", "serve"},
			want: []string{"debatepad", "serve"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTopicLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTopicLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
