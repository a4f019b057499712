package queue

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/common"
)

type Type string

const (
	Type_Events Type = "events"
)

const defaultVisibilityTimeout = 5 * time.Minute

func CreateQueue(ctx context.Context, queueType Type, sqsClient *sqs.Client) (string, error) {
	createQueueIn := sqs.CreateQueueInput{
		QueueName: aws.String(queueName(queueType)),
		Attributes: map[string]string{
			string(types.QueueAttributeNameVisibilityTimeout): strconv.Itoa(int(defaultVisibilityTimeout.Seconds())),
		},
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if createQueueOut, err := sqsClient.CreateQueue(httpCtx, &createQueueIn); err != nil {
		return "", err
	} else {
		return *createQueueOut.QueueUrl, nil
	}
}

func queueName(queueType Type) string {
	return fmt.Sprintf("hv-movies-%s-%s", os.Getenv(movies.Env_Env), string(queueType))
}
