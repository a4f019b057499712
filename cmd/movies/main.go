package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/common"
	"github.com/Helioviewer-Project/go-movies/common/api"
	"github.com/Helioviewer-Project/go-movies/common/aws/ddb"
	"github.com/Helioviewer-Project/go-movies/common/aws/queue"
	"github.com/Helioviewer-Project/go-movies/common/db"
	"github.com/Helioviewer-Project/go-movies/common/loggers"
	"github.com/Helioviewer-Project/go-movies/common/metrics"
	"github.com/Helioviewer-Project/go-movies/common/notifs"
	"github.com/Helioviewer-Project/go-movies/common/utils"
	"github.com/Helioviewer-Project/go-movies/models"
	"github.com/Helioviewer-Project/go-movies/services"
)

const defaultApiUrl = "https://api.helioviewer.org/v2"
const waitTick = 2 * time.Second

type queueCmd struct {
	Start       string  `arg:"required" help:"window start, e.g. 2024-03-01T11:00:00Z"`
	End         string  `arg:"required" help:"window end"`
	Layers      string  `arg:"required" help:"layer string, e.g. [SDO,AIA,AIA,304,1,100]"`
	X1          float64 `help:"region left edge, arcsec"`
	X2          float64 `help:"region right edge, arcsec"`
	Y1          float64 `help:"region top edge, arcsec"`
	Y2          float64 `help:"region bottom edge, arcsec"`
	ImageScale  float64 `arg:"--image-scale" default:"2.42" help:"arcsec per pixel"`
	FrameRate   int     `arg:"--frame-rate" help:"frames per second, 1-30"`
	MovieLength int     `arg:"--movie-length" help:"movie length in seconds, 5-100"`
	Events      string  `help:"event overlay descriptor"`
}

type refreshCmd struct {
	Id string `arg:"required,positional" help:"movie id to refresh or rebuild"`
}

type importCmd struct {
	Id string `arg:"required,positional" help:"shared movie id"`
}

type listCmd struct{}

type cmdArgs struct {
	Queue   *queueCmd   `arg:"subcommand:queue" help:"queue a new movie and wait for it"`
	Refresh *refreshCmd `arg:"subcommand:refresh" help:"rebuild a stale or failed movie"`
	Import  *importCmd  `arg:"subcommand:import" help:"add a shared movie to the history"`
	List    *listCmd    `arg:"subcommand:list" help:"print the movie history"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("main: no .env file loaded: %v", err)
	}

	args := cmdArgs{}
	parser := arg.MustParse(&args)
	if parser.Subcommand() == nil {
		parser.Fail("missing subcommand")
	}

	logger := loggers.NewLogger()
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiUrl := os.Getenv(movies.Env_ApiUrl)
	if len(apiUrl) == 0 {
		apiUrl = defaultApiUrl
	}
	apiClient := api.NewClient(apiUrl, logger)

	awsCfg, err := utils.AwsConfig()
	if err != nil {
		logger.Fatalf("main: error creating aws cfg: %v", err)
	}

	metricService, err := metrics.NewMetricService(ctx, logger)
	if err != nil {
		logger.Fatalf("main: error creating metric service: %v", err)
	}
	defer metricService.Shutdown(ctx)

	owner := os.Getenv(movies.Env_MovieOwner)
	if len(owner) == 0 {
		owner = "default"
	}
	historyDb := ddb.NewHistoryDb(ctx, logger, dynamodb.NewFromConfig(awsCfg), owner)

	registry := services.NewRegistryService(historyDb, metricService, logger)
	if err = registry.Load(ctx); err != nil {
		logger.Warnf("main: error loading movie history: %v", err)
	}

	archiveDb := db.NewArchiveDb(db.ArchiveDbOpts{
		Host:     os.Getenv(common.Env_DbHost),
		Port:     os.Getenv(common.Env_DbPort),
		User:     os.Getenv(common.Env_DbUsername),
		Password: os.Getenv(common.Env_DbPassword),
		Name:     os.Getenv(common.Env_DbName),
	}, logger)
	archiver := services.NewArchiveService(archiveDb, metricService, logger)
	registry.Subscribe(archiver.Record)

	eventsPublisher, err := queue.NewPublisher(ctx, queue.Type_Events, sqs.NewFromConfig(awsCfg))
	if err != nil {
		logger.Fatalf("main: failed to create events publisher: %v", err)
	}
	events := services.NewEventService(eventsPublisher, logger)
	registry.Subscribe(events.Broadcast)

	notifier, err := notifs.NewDiscordHandler(logger)
	if err != nil {
		logger.Fatalf("main: failed to create notification handler: %v", err)
	}

	scheduler := services.NewTimerScheduler()
	poller := services.NewPollingService(apiClient, registry, scheduler, notifier, metricService, logger)
	submitter := services.NewSubmitService(apiClient, registry, poller, notifier, metricService, logger)
	freshness := services.NewFreshnessService(apiClient, registry, poller, notifier, metricService, logger)
	importer := services.NewImportService(apiClient, registry, metricService, logger)
	composer := services.NewComposerService(logger)

	switch {
	case args.Queue != nil:
		runQueue(ctx, args.Queue, composer, submitter, registry, logger)
	case args.Refresh != nil:
		runRefresh(ctx, args.Refresh.Id, freshness, registry, logger)
	case args.Import != nil:
		if entry, err := importer.Import(ctx, args.Import.Id); err != nil {
			logger.Fatalf("main: error importing movie %s: %v", args.Import.Id, err)
		} else {
			printEntry(entry)
		}
	case args.List != nil:
		for _, entry := range registry.List() {
			printEntry(entry)
		}
	}
}

func runQueue(ctx context.Context, cmd *queueCmd, composer *services.ComposerService, submitter *services.SubmitService, registry *services.RegistryService, logger models.Logger) {
	layers, err := models.ParseLayerString(cmd.Layers)
	if err != nil {
		logger.Fatalf("main: %v", err)
	}
	viewport := &models.ViewportState{
		// The composer works in screen pixels, the CLI takes arcsec.
		Region: models.PixelRegion{
			Top:    cmd.Y1 / cmd.ImageScale,
			Left:   cmd.X1 / cmd.ImageScale,
			Bottom: cmd.Y2 / cmd.ImageScale,
			Right:  cmd.X2 / cmd.ImageScale,
		},
		ImageScale: cmd.ImageScale,
		Layers:     layers,
		Events:     cmd.Events,
	}
	form := &models.MovieForm{StartTime: cmd.Start, EndTime: cmd.End}
	if cmd.FrameRate > 0 {
		form.FrameRate = &cmd.FrameRate
	}
	if cmd.MovieLength > 0 {
		form.MovieLength = &cmd.MovieLength
	}

	request, err := composer.ComposeFromForm(viewport, form)
	if err != nil {
		logger.Fatalf("main: %v", err)
	}
	entry, err := submitter.Submit(ctx, request)
	if err != nil {
		logger.Fatalf("main: %v", err)
	}
	if entry == nil {
		// Abandoned with a warning, nothing to wait for.
		return
	}
	waitForTerminal(ctx, registry, entry.Id, logger)
}

func runRefresh(ctx context.Context, id string, freshness *services.FreshnessService, registry *services.RegistryService, logger models.Logger) {
	entry, err := freshness.EnsureFresh(ctx, id)
	if err != nil {
		logger.Fatalf("main: %v", err)
	}
	if entry.Status.Terminal() {
		printEntry(entry)
		return
	}
	waitForTerminal(ctx, registry, id, logger)
}

func waitForTerminal(ctx context.Context, registry *services.RegistryService, id string, logger models.Logger) {
	tick := time.NewTicker(waitTick)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("main: interrupted while waiting on movie %s", id)
			return
		case <-tick.C:
			if entry, found := registry.Get(id); found && entry.Status.Terminal() {
				printEntry(entry)
				return
			}
		}
	}
}

func printEntry(entry *models.MovieEntry) {
	line := fmt.Sprintf("%s  %-10s  %s", entry.Id, entry.Status, entry.Name)
	if len(entry.Url) > 0 {
		line += "  " + entry.Url
	}
	fmt.Println(line)
}
