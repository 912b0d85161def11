// railops is the terminal client for the RailOps fleet dashboard backend.
// It keeps a login session alive across invocations: tokens live in a
// credential store and are refreshed transparently whenever a command needs
// one.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/api"
	"github.com/railops/railops/internal/config"
	"github.com/railops/railops/internal/credstore"
)

const usage = `railops - fleet dashboard client

Usage:
  railops <command> [arguments]

Session:
  login            log in and store the session
  logout           end the session locally and server-side
  whoami           show the cached profile and session state
  status           show server-side session status
  sessions         list active sessions across devices
  terminate <id>   terminate another session
  change-password  change the account password
  watch            hold the session open, refreshing in the background

Account:
  profile          show or update the user profile
  preferences      show or update notification preferences

Fleet:
  trainsets        list, inspect or edit trainsets
  components       list or edit components
  mileage          list or record mileage logs
  kpis             show fleet KPIs
  activity         show recent activity
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "railops: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open credential store")
	}

	client := api.New(api.Options{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
	}, store, logger)

	ctx := context.Background()
	if err := run(ctx, cfg, client, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "railops: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, client *api.Client, command string, args []string) error {
	switch command {
	case "login":
		return cmdLogin(ctx, client, args)
	case "logout":
		return cmdLogout(ctx, client)
	case "whoami":
		return cmdWhoami(ctx, client)
	case "status":
		return cmdStatus(ctx, client)
	case "sessions":
		return cmdSessions(ctx, client)
	case "terminate":
		return cmdTerminate(ctx, client, args)
	case "change-password":
		return cmdChangePassword(ctx, client)
	case "watch":
		return cmdWatch(ctx, cfg, client)
	case "profile":
		return cmdProfile(ctx, client, args)
	case "preferences":
		return cmdPreferences(ctx, client, args)
	case "trainsets":
		return cmdTrainsets(ctx, client, args)
	case "components":
		return cmdComponents(ctx, client, args)
	case "mileage":
		return cmdMileage(ctx, client, args)
	case "kpis":
		return cmdKPIs(ctx, client)
	case "activity":
		return cmdActivity(ctx, client, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func buildStore(cfg *config.Config, logger *logrus.Logger) (credstore.Store, error) {
	switch cfg.CredStore.Backend {
	case "memory":
		return credstore.NewMemory(), nil
	case "file":
		return credstore.NewFile(cfg.CredStore.Dir, logger)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return credstore.NewRedis(client, cfg.CredStore.Scope, logger), nil
	case "dynamo":
		client, err := initDynamoDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		return credstore.NewDynamo(client, cfg.DynamoDB.TableName, cfg.CredStore.Scope, logger), nil
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", cfg.CredStore.Backend)
	}
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Debug("DynamoDB client initialized")
	return client, nil
}
