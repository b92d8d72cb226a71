package selector

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/r2pipe-go/internal/config"
	r2errors "github.com/wagiedev/r2pipe-go/internal/errors"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name         string
		explicitPath string
		env          map[string]string
		want         Spec
		wantErr      bool
	}{
		{
			name: "inherited descriptors without path",
			env:  map[string]string{EnvPipeIn: "3", EnvPipeOut: "4"},
			want: Spec{Kind: config.KindInherited, ReadFD: 3, WriteFD: 4},
		},
		{
			name:         "inherited descriptors win over explicit path",
			explicitPath: "/bin/ls",
			env:          map[string]string{EnvPipeIn: "10", EnvPipeOut: "11"},
			want:         Spec{Kind: config.KindInherited, ReadFD: 10, WriteFD: 11},
		},
		{
			name: "descriptor values are trimmed",
			env:  map[string]string{EnvPipeIn: " 5\n", EnvPipeOut: "6 "},
			want: Spec{Kind: config.KindInherited, ReadFD: 5, WriteFD: 6},
		},
		{
			name: "inherited named pipes",
			env:  map[string]string{EnvPipeIn: "/tmp/r2pipe.in", EnvPipeOut: "/tmp/r2pipe.out"},
			want: Spec{Kind: config.KindInherited, ReadPath: "/tmp/r2pipe.in", WritePath: "/tmp/r2pipe.out"},
		},
		{
			name:         "explicit path only",
			explicitPath: "/bin/ls",
			env:          map[string]string{"HOME": "/root"},
			want:         Spec{Kind: config.KindSpawned, Target: "/bin/ls"},
		},
		{
			name:         "explicit path with nil env",
			explicitPath: "malloc://1024",
			want:         Spec{Kind: config.KindSpawned, Target: "malloc://1024"},
		},
		{
			name:         "only one key present",
			explicitPath: "/bin/ls",
			env:          map[string]string{EnvPipeIn: "3"},
			want:         Spec{Kind: config.KindSpawned, Target: "/bin/ls"},
		},
		{
			name:         "negative descriptor is invalid",
			explicitPath: "/bin/ls",
			env:          map[string]string{EnvPipeIn: "-1", EnvPipeOut: "4"},
			want:         Spec{Kind: config.KindSpawned, Target: "/bin/ls"},
		},
		{
			name:         "mixed descriptor and path is invalid",
			explicitPath: "/bin/ls",
			env:          map[string]string{EnvPipeIn: "3", EnvPipeOut: "/tmp/r2pipe.out"},
			want:         Spec{Kind: config.KindSpawned, Target: "/bin/ls"},
		},
		{
			name:         "relative pipe path is invalid",
			explicitPath: "/bin/ls",
			env:          map[string]string{EnvPipeIn: "pipe.in", EnvPipeOut: "pipe.out"},
			want:         Spec{Kind: config.KindSpawned, Target: "/bin/ls"},
		},
		{
			name:    "empty values and no path",
			env:     map[string]string{EnvPipeIn: "", EnvPipeOut: ""},
			wantErr: true,
		},
		{
			name:    "nothing at all",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if runtime.GOOS == "windows" && tt.want.ReadPath != "" {
				t.Skip("Unix path fixture")
			}

			got, err := Select(tt.explicitPath, tt.env)

			if tt.wantErr {
				configErr, ok := errors.AsType[*r2errors.ConfigurationError](err)
				require.True(t, ok, "expected ConfigurationError, got %T", err)
				require.Equal(t, "no open session and no target given", configErr.Reason)
				require.Equal(t, Spec{}, got)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// TestSelect_DoesNotMutateEnv tests that selection only reads its input.
func TestSelect_DoesNotMutateEnv(t *testing.T) {
	env := map[string]string{EnvPipeIn: " 3 ", EnvPipeOut: "4"}

	_, err := Select("", env)
	require.NoError(t, err)
	require.Equal(t, map[string]string{EnvPipeIn: " 3 ", EnvPipeOut: "4"}, env)
}

func TestSpecPredicates(t *testing.T) {
	fds := Spec{Kind: config.KindInherited, ReadFD: 0, WriteFD: 1}
	require.True(t, fds.HasDescriptors())
	require.False(t, fds.HasPaths())

	paths := Spec{Kind: config.KindInherited, ReadPath: "/a", WritePath: "/b"}
	require.False(t, paths.HasDescriptors())
	require.True(t, paths.HasPaths())

	spawned := Spec{Kind: config.KindSpawned, Target: "/bin/ls"}
	require.False(t, spawned.HasDescriptors())
	require.False(t, spawned.HasPaths())
}

func TestInSession(t *testing.T) {
	require.True(t, InSession(map[string]string{EnvPipeIn: "3", EnvPipeOut: "4"}))
	require.False(t, InSession(map[string]string{EnvPipeIn: "3"}))
	require.False(t, InSession(nil))
}

func TestEnvMap(t *testing.T) {
	env := EnvMap([]string{
		"R2PIPE_IN=3",
		"R2PIPE_OUT=4",
		"EQUALS=a=b",
		"NOVALUE",
		"=orphan",
		"R2PIPE_IN=5",
	})

	require.Equal(t, map[string]string{
		"R2PIPE_IN":  "5",
		"R2PIPE_OUT": "4",
		"EQUALS":     "a=b",
	}, env)
}
