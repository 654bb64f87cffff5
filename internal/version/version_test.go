package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latinkbd/kbdswitch/internal/version"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		set     string
		want    string
		wantErr bool
	}{
		{name: "dev build", set: "", want: "0.0.1-dev"},
		{name: "plain", set: "1.4.2", want: "1.4.2"},
		{name: "v prefix", set: "v2.0.0", want: "2.0.0"},
		{name: "dirty", set: "v1.2.3-dirty", want: "1.2.3-dirty"},
		{name: "invalid", set: "nightly", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := version.Version
			version.Version = tt.set
			defer func() { version.Version = old }()

			got, err := version.Get()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.set, version.String())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, version.String())
		})
	}
}

func TestParse(t *testing.T) {
	major, minor, patch := version.Parse("1.2.3-dirty")
	assert.Equal(t, []int{1, 2, 3}, []int{major, minor, patch})

	major, minor, patch = version.Parse("4")
	assert.Equal(t, []int{4, 0, 0}, []int{major, minor, patch})
}
