package config_test

import (
	"fmt"
	"log"
	"testing"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleNetAddress_Set() {
	addr := config.NewNetAddress()

	err := addr.Set("example.com:8080")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(addr.String())
	// Output: example.com:8080
}

func ExampleNetAddress_Set_emptyHost() {
	addr := config.NewNetAddress()

	err := addr.Set(":9000")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(addr.String())
	// Output: 0.0.0.0:9000
}

func TestNetAddress_SetInvalid(t *testing.T) {
	addr := config.NewNetAddress()

	cases := []struct {
		input string
	}{
		{input: "invalid"},
		{input: "example.com"},
		{input: "example.com:NaN"},
		{input: "example.com:8080:8080"},
		{input: "example.com:8080:8080:8080"},
	}

	for _, c := range cases {
		err := addr.Set(c.input)
		require.Error(t, err, "invalid address produces no error")
	}
}

func TestEnabled_Set(t *testing.T) {
	var e config.Enabled

	for _, v := range []string{"true", "1", "t", "T", "TRUE", "True"} {
		require.NoError(t, e.Set(v))
		assert.True(t, bool(e), v)
	}
	for _, v := range []string{"false", "0", "f", "F", "FALSE", "False"} {
		require.NoError(t, e.Set(v))
		assert.False(t, bool(e), v)
	}
	assert.Error(t, e.Set("yes"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{
			name:   "memory",
			mutate: func(*config.Config) {},
		},
		{
			name: "sqlite with dsn",
			mutate: func(c *config.Config) {
				c.Storage.Driver = config.DriverSQLite
				c.Storage.DSN = "file:test.db"
			},
		},
		{
			name: "postgres without dsn",
			mutate: func(c *config.Config) {
				c.Storage.Driver = config.DriverPostgres
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			mutate: func(c *config.Config) {
				c.Storage.Driver = "mysql"
			},
			wantErr: true,
		},
		{
			name: "empty base url",
			mutate: func(c *config.Config) {
				c.Server.BaseURL = ""
			},
			wantErr: true,
		},
		{
			name: "negative purge interval",
			mutate: func(c *config.Config) {
				c.Purge.Interval = -1
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.NewForTest()
			tt.mutate(c)
			assert.Equal(t, tt.wantErr, c.Validate() != nil)
		})
	}
}

func TestConfig_ShortLink(t *testing.T) {
	c := config.NewForTest()

	c.Server.BaseURL = "http://localhost:8000/e"
	assert.Equal(t, "http://localhost:8000/e/AQAAAAAAAAA=", c.ShortLink("AQAAAAAAAAA="))

	c.Server.BaseURL = "https://hl.example/e/"
	assert.Equal(t, "https://hl.example/e/AQAAAAAAAAA=", c.ShortLink("AQAAAAAAAAA="))
}
