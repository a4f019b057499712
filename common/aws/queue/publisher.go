package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/abevier/go-sqs/gosqs"

	"github.com/Helioviewer-Project/go-movies/models"
)

const maxLinger = 250 * time.Millisecond

// Publisher broadcasts movie status events for downstream consumers (mailers,
// dashboards). The movie workflow itself never reads these back.
type Publisher struct {
	queueType Type
	queueUrl  string
	publisher *gosqs.SQSPublisher
}

var _ models.QueuePublisher = &Publisher{}

func NewPublisher(ctx context.Context, queueType Type, sqsClient *sqs.Client) (*Publisher, error) {
	// Create the queue if it didn't already exist
	if queueUrl, err := CreateQueue(ctx, queueType, sqsClient); err != nil {
		return nil, err
	} else {
		return &Publisher{
			queueType,
			queueUrl,
			gosqs.NewPublisher(
				sqsClient,
				queueUrl,
				maxLinger,
			)}, nil
	}
}

func (p Publisher) GetUrl() string {
	return p.queueUrl
}

func (p Publisher) SendMessage(ctx context.Context, event any) (string, error) {
	if eventBody, err := json.Marshal(event); err != nil {
		return "", err
	} else if msgId, err := p.publisher.SendMessage(ctx, string(eventBody)); err != nil {
		return "", err
	} else {
		return msgId, nil
	}
}
