package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"migrate", "createsuperuser", "import-items", "render"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}
}

func TestArgs(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		name    string
		command string
		args    []string
		wantErr bool
	}{
		{"migrate takes no args", "migrate", nil, false},
		{"migrate rejects args", "migrate", []string{"x"}, true},
		{"import needs a file", "import-items", nil, true},
		{"import with file", "import-items", []string{"items.csv"}, false},
		{"render needs kind and id", "render", []string{"invoice"}, true},
		{"render with kind and id", "render", []string{"invoice", "id"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)

			err = cmd.ValidateArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCreateSuperuser_RequiresEmail(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"createsuperuser"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("email")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}
