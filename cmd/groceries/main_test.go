package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectMenuLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"groceries"},
			want: []string{"groceries"},
		},
		{
			name: "direct menu id first token",
			in:   []string{"groceries", "3"},
			want: []string{"groceries", "menus", "show", "3"},
		},
		{
			name: "direct menu id after value flag",
			in:   []string{"groceries", "--api", "http://localhost:8080/api/groceries/v1", "3"},
			want: []string{"groceries", "--api", "http://localhost:8080/api/groceries/v1", "menus", "show", "3"},
		},
		{
			name: "direct menu id after equals flag",
			in:   []string{"groceries", "--format=edn", "3"},
			want: []string{"groceries", "--format=edn", "menus", "show", "3"},
		},
		{
			name: "direct menu id after bool flag",
			in:   []string{"groceries", "-v", "3"},
			want: []string{"groceries", "-v", "menus", "show", "3"},
		},
		{
			name: "direct menu id after double dash",
			in:   []string{"groceries", "--pretty", "--", "3"},
			want: []string{"groceries", "--pretty", "--", "menus", "show", "3"},
		},
		{
			name: "value of a value flag is skipped",
			in:   []string{"groceries", "--format", "7"},
			want: []string{"groceries", "--format", "7"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"groceries", "menus", "show", "3"},
			want: []string{"groceries", "menus", "show", "3"},
		},
		{
			name: "zero is not a menu id",
			in:   []string{"groceries", "0"},
			want: []string{"groceries", "0"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"groceries", "wat"},
			want: []string{"groceries", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectMenuLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectMenuLookupArgs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
