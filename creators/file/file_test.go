package file

import (
	"context"
	"testing"

	"github.com/cuongbtq/testbed-contrib/creators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreator_Create(t *testing.T) {
	tests := []struct {
		name      string
		src       creators.Source
		wantErr   bool
		errString string
	}{
		{
			name: "valid file",
			src:  creators.Source{URI: "testdata/lab.yaml"},
		},
		{
			name:      "missing URI",
			src:       creators.Source{},
			wantErr:   true,
			errString: "requires a path",
		},
		{
			name:      "non-existent file",
			src:       creators.Source{URI: "testdata/nope.yaml"},
			wantErr:   true,
			errString: "failed to read testbed file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := New().Create(context.Background(), tt.src)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, "lab-file", doc.Name)
				assert.Equal(t, []string{"r1", "r2"}, doc.DeviceNames())
				assert.Equal(t, 830, doc.Devices["r2"].Port)
			}
		})
	}
}

func TestRegistration(t *testing.T) {
	c, ok := creators.Lookup(CreatorName)
	require.True(t, ok)
	assert.Equal(t, "file", c.Name())
}
