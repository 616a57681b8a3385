package service

import "testing"

func TestMediaService_ObjectKeyFromURL(t *testing.T) {
	svc := &MediaService{
		publicURL:  "https://cdn.example.com",
		defaultKey: "avatars/default.jpg",
	}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "own avatar URL",
			url:  "https://cdn.example.com/avatars/abc123.jpg",
			want: "avatars/abc123.jpg",
		},
		{
			name: "foreign host",
			url:  "https://elsewhere.example.com/avatars/abc123.jpg",
			want: "",
		},
		{
			name: "own bucket but outside the avatar folder",
			url:  "https://cdn.example.com/uploads/abc123.jpg",
			want: "",
		},
		{
			name: "shared default avatar is never reaped",
			url:  "https://cdn.example.com/avatars/default.jpg",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ObjectKeyFromURL(tt.url); got != tt.want {
				t.Errorf("ObjectKeyFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
