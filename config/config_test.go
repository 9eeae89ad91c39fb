package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":    "9090",
		"COUNT":   "12",
		"BAD_INT": "twelve",
		"RATE":    "2.5",
		"STRICT":  "true",
		"EMPTY":   "",
		"ORIGINS": "https://a.edu, ,https://b.edu",
		"TIMEOUT": "3",
	}

	assert.Equal(t, "9090", GetString(c, "PORT", "8080"))
	assert.Equal(t, "8080", GetString(c, "EMPTY", "8080"))
	assert.Equal(t, "x", GetString(nil, "PORT", "x"))
	assert.Equal(t, 12, GetInt(c, "COUNT", 1))
	assert.Equal(t, 1, GetInt(c, "BAD_INT", 1))
	assert.Equal(t, 2.5, GetFloat(c, "RATE", 1))
	assert.True(t, GetBool(c, "STRICT", false))
	assert.False(t, GetBool(c, "MISSING", false))
	assert.Equal(t, 3*time.Second, GetSeconds(c, "TIMEOUT", time.Minute))
	assert.Equal(t, time.Minute, GetSeconds(c, "MISSING", time.Minute))
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, GetList(c, "ORIGINS"))
}

func TestSplit(t *testing.T) {
	key, value := split("DSN=host=x user=y")
	assert.Equal(t, "DSN", key)
	assert.Equal(t, "host=x user=y", value)

	key, value = split("FLAG")
	assert.Equal(t, "FLAG", key)
	assert.Empty(t, value)
}

func TestLoadDefaults(t *testing.T) {
	s := Load(map[string]string{})

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, StorePostgres, s.DBType)
	assert.Contains(t, s.PostgresDSN, "dbname=campus")
	assert.Equal(t, "imagekit", s.MediaProvider)
	assert.Equal(t, int64(10<<20), s.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, s.StoreTimeout)
	assert.False(t, s.StrictContributors)
	assert.Equal(t, "@every 10m", s.ReconcileSchedule)
}

func TestLoadSupabaseDSN(t *testing.T) {
	s := Load(map[string]string{
		"DB_TYPE":              StoreSupabase,
		"SUPABASE_DB_HOST":     "db.supabase.co",
		"SUPABASE_DB_USER":     "postgres",
		"SUPABASE_DB_PASSWORD": "secret",
		"SUPABASE_DB_NAME":     "campus",
	})

	assert.Equal(t, "host=db.supabase.co user=postgres password=secret dbname=campus port=5432 sslmode=require", s.PostgresDSN)
}

func TestLoadMongoHasNoDSN(t *testing.T) {
	s := Load(map[string]string{"DB_TYPE": StoreMongo, "MONGO_URI": "mongodb://m:27017/db"})
	assert.Empty(t, s.PostgresDSN)
	assert.Equal(t, "mongodb://m:27017/db", s.MongoURI)
}
