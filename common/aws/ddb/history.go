package ddb

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// HistoryDatabase is the settings-store collaborator: one item per owner
// holding the serialized movie history, overwritten wholesale on each save.
type HistoryDatabase struct {
	client       *dynamodb.Client
	historyTable string
	owner        string
	logger       models.Logger
}

type historyItem struct {
	Owner     string    `dynamodbav:"owner"`
	Movies    string    `dynamodbav:"movies"`
	UpdatedAt time.Time `dynamodbav:"ts,unixtime"`
}

var _ models.HistoryRepository = &HistoryDatabase{}

func NewHistoryDb(ctx context.Context, logger models.Logger, client *dynamodb.Client, owner string) *HistoryDatabase {
	env := os.Getenv(movies.Env_Env)

	hdb := HistoryDatabase{
		client,
		"hv-movies-" + env + "-history",
		owner,
		logger,
	}
	if err := hdb.createHistoryTable(ctx); err != nil {
		logger.Fatalf("history: table creation failed: %v", err)
	}
	return &hdb
}

func (hdb *HistoryDatabase) createHistoryTable(ctx context.Context) error {
	createHistoryTableInput := dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("owner"),
				AttributeType: "S",
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("owner"),
				KeyType:       "HASH",
			},
		},
		TableName: aws.String(hdb.historyTable),
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	}
	return createTable(ctx, hdb.logger, hdb.client, &createHistoryTableInput)
}

func (hdb *HistoryDatabase) LoadHistory(ctx context.Context) ([]*models.MovieEntry, error) {
	getItemIn := dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"owner": &types.AttributeValueMemberS{Value: hdb.owner},
		},
		TableName: aws.String(hdb.historyTable),
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, movies.DefaultHttpWaitTime)
	defer httpCancel()

	getItemOut, err := hdb.client.GetItem(httpCtx, &getItemIn)
	if err != nil {
		return nil, err
	}
	if getItemOut.Item == nil {
		return nil, nil
	}
	item := historyItem{}
	if err = attributevalue.UnmarshalMapWithOptions(getItemOut.Item, &item); err != nil {
		return nil, err
	}
	var entries []*models.MovieEntry
	if err = json.Unmarshal([]byte(item.Movies), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (hdb *HistoryDatabase) SaveHistory(ctx context.Context, entries []*models.MovieEntry) error {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	attributeValues, err := attributevalue.MarshalMapWithOptions(historyItem{
		Owner:     hdb.owner,
		Movies:    string(encoded),
		UpdatedAt: time.Now().UTC(),
	}, func(options *attributevalue.EncoderOptions) {
		options.EncodeTime = func(ts time.Time) (types.AttributeValue, error) {
			return &types.AttributeValueMemberN{Value: strconv.FormatInt(ts.UnixMilli(), 10)}, nil
		}
	})
	if err != nil {
		return err
	}
	putItemIn := dynamodb.PutItemInput{
		TableName: aws.String(hdb.historyTable),
		Item:      attributeValues,
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, movies.DefaultHttpWaitTime)
	defer httpCancel()

	if _, err = hdb.client.PutItem(httpCtx, &putItemIn); err != nil {
		hdb.logger.Errorf("history: error writing to db: %v", err)
		return err
	}
	return nil
}
