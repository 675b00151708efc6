package lower

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/npillmayer/schuko/schukonf/testconfig"
)

func TestOptionsFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		conf    testconfig.Conf
		want    Options
		wantErr bool
	}{
		{name: "empty", conf: testconfig.Conf{}, want: Options{}},
		{
			name: "bounds checks",
			conf: testconfig.Conf{KeyBoundsChecks: "true"},
			want: Options{BoundsChecks: true},
		},
		{
			name: "gosub depth",
			conf: testconfig.Conf{KeyGosubDepth: 16},
			want: Options{GosubStackDepth: 16},
		},
		{
			name: "gosub depth as text",
			conf: testconfig.Conf{KeyGosubDepth: "32", KeyBoundsChecks: "false"},
			want: Options{GosubStackDepth: 32},
		},
		{
			name:    "zero depth",
			conf:    testconfig.Conf{KeyGosubDepth: 0},
			wantErr: true,
		},
		{
			name:    "negative depth",
			conf:    testconfig.Conf{KeyGosubDepth: "-3"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionsFromConfig(tt.conf)
			if tt.wantErr {
				be.True(t, err != nil)
				return
			}
			be.Err(t, err, nil)
			be.Equal(t, got.BoundsChecks, tt.want.BoundsChecks)
			be.Equal(t, got.GosubStackDepth, tt.want.GosubStackDepth)
		})
	}
}

func TestGosubDepthDefault(t *testing.T) {
	be.Equal(t, Options{}.gosubDepth(), DefaultGosubStackDepth)
	be.Equal(t, Options{GosubStackDepth: 3}.gosubDepth(), 3)
}
