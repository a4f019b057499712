package movies

import "time"

const DefaultHttpWaitTime = 10 * time.Second

const (
	Env_ApiUrl      = "HV_API_URL"
	Env_AwsEndpoint = "AWS_ENDPOINT"
	Env_AwsRegion   = "AWS_REGION"
	Env_Env         = "ENV"
	Env_LogLevel    = "LOG_LEVEL"
	Env_MovieFormat = "HV_MOVIE_FORMAT"
	Env_MovieOwner  = "HV_MOVIE_OWNER"
)
