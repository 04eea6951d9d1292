package constant

type PredictionStatus string

const (
	PredictionStatusSuccess PredictionStatus = "success"
	PredictionStatusError   PredictionStatus = "error"
)

func (s PredictionStatus) String() string {
	return string(s)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendMinIO StorageBackend = "minio"
)

func (b StorageBackend) String() string {
	return string(b)
}
