package config

type ProfileStoreType string

const (
	ProfileStoreFile   ProfileStoreType = "file"
	ProfileStoreRedis  ProfileStoreType = "redis"
	ProfileStoreMemory ProfileStoreType = "memory"
)

type StorageConfig interface {
	GetProfileStore() ProfileStoreType
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetProfileStore selects the backend for the long-lived profile region.
// Unknown values fall back to the file store.
func (Storage) GetProfileStore() ProfileStoreType {
	switch s := ProfileStoreType(GetEnv("PROFILE_STORE", string(ProfileStoreFile))); s {
	case ProfileStoreFile, ProfileStoreRedis, ProfileStoreMemory:
		return s
	default:
		return ProfileStoreFile
	}
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetIntEnv("REDIS_DB", 0)
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "booklib:")
}
