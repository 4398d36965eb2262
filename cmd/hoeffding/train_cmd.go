package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/redis.v5"

	streamdm "github.com/ty01csbaidu/streamDM"
	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/queue"
	"github.com/ty01csbaidu/streamDM/queue/redisq"
	"github.com/ty01csbaidu/streamDM/split"
	"github.com/ty01csbaidu/streamDM/tree"
)

type trainCmdConfig struct {
	*rootCmdConfig
	dataInput       string
	metadataInput   string
	output          string
	classFeature    string
	modelInput      string
	criterion       string
	leafStrategy    string
	gracePeriod     float64
	tieThreshold    float64
	splitConfidence float64
	nbThreshold     float64
	binaryOnly      bool
	batchSize       int
	workers         int
	queueAddr       string
	queuePassword   string
	queueDB         int
	queueID         string
	taskMaxRun      time.Duration
	ctx             context.Context
	cancelFunc      context.CancelFunc
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a hoeffding tree from a stream of examples",
		Long:  `Train a hoeffding tree classifier from a stream of examples to predict a certain feature, folding batches of examples in parallel.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			features, class, err := readMetadata(config.metadataInput, config.classFeature)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			cfg, err := config.modelConfig(features, class)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			stream, err := config.openStream(config.Context(), config.dataInput, features, class)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			defer stream.Close()
			trainer, err := config.trainer(cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			q, err := config.queue()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			count, err := streamdm.Seed(config.Context(), stream, q, config.batchSize)
			if err != nil {
				fmt.Fprintf(os.Stderr, "seeding training batches: %v\n", err)
				os.Exit(7)
			}
			config.Logger().Infow("training", "examples", count, "features", len(features), "class", class.Name(), "workers", config.workers)
			err = config.train(trainer, q)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training the model: %v\n", err)
				os.Exit(8)
			}
			model := trainer.Model()
			config.Logger().Infow("done",
				"active leaves", model.ActiveLeaves(),
				"inactive leaves", model.InactiveLeaves(),
				"decision nodes", model.DecisionNodes(),
				"weight", model.TotalWeight())
			config.Logger().Debugf("%v", model.Description())
			err = outputModel(config.output, model)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with examples to train from (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the trained model will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the trained model should predict (required)")
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "t", "", "path to a file with a previously trained model in JSON format to continue training (defaults to a fresh model)")
	cmd.PersistentFlags().StringVar(&(config.criterion), "criterion", "info-gain", "split criterion to score candidate splits with, the following are valid: info-gain, info-gain:[MIN-BRANCH-FRACTION], gini")
	cmd.PersistentFlags().StringVar(&(config.leafStrategy), "leaf", "nb-adaptive", "prediction strategy for leaves, the following are valid: majority, nb, nb-adaptive")
	cmd.PersistentFlags().Float64Var(&(config.gracePeriod), "grace-period", 200, "weight a leaf must accumulate between split attempts")
	cmd.PersistentFlags().Float64Var(&(config.tieThreshold), "tie-threshold", 0.05, "hoeffding bound below which a merit tie is split anyway")
	cmd.PersistentFlags().Float64Var(&(config.splitConfidence), "split-confidence", 1e-7, "allowed probability of choosing the wrong split")
	cmd.PersistentFlags().Float64Var(&(config.nbThreshold), "nb-threshold", 0, "weight a leaf must accumulate before naive-bayes votes kick in")
	cmd.PersistentFlags().BoolVar(&(config.binaryOnly), "binary-only", false, "restrict decision tests to two-way splits")
	cmd.PersistentFlags().IntVar(&(config.batchSize), "batch-size", 1000, "number of examples per training batch")
	cmd.PersistentFlags().IntVar(&(config.workers), "workers", 4, "number of workers folding batches concurrently")
	cmd.PersistentFlags().StringVar(&(config.queueAddr), "queue", "", "address of a redis server to queue training batches on (defaults to an in-memory queue)")
	cmd.PersistentFlags().StringVar(&(config.queuePassword), "queue-password", "", "password for the redis server given with the queue flag")
	cmd.PersistentFlags().IntVar(&(config.queueDB), "queue-db", 0, "redis DB number for the queue given with the queue flag")
	cmd.PersistentFlags().StringVar(&(config.queueID), "queue-id", "hoeffding", "identifier namespacing the queue's keys on the redis server")
	cmd.PersistentFlags().DurationVar(&(config.taskMaxRun), "task-max-run", 5*time.Minute, "time after which a batch pulled from the redis queue is requeued for another worker")
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.classFeature == "" {
		return fmt.Errorf("required class-feature flag was not set")
	}
	if tcc.batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if tcc.workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

func (tcc *trainCmdConfig) modelConfig(features []feature.Feature, class *feature.NominalFeature) (*tree.Config, error) {
	cfg := tree.DefaultConfig(class.Cardinality(), features)
	criterion, err := splitCriterion(tcc.criterion)
	if err != nil {
		return nil, err
	}
	strategy, err := tree.ParseLeafStrategy(tcc.leafStrategy)
	if err != nil {
		return nil, err
	}
	cfg.Criterion = criterion
	cfg.LeafStrategy = strategy
	cfg.GracePeriod = tcc.gracePeriod
	cfg.TieThreshold = tcc.tieThreshold
	cfg.SplitConfidence = tcc.splitConfidence
	cfg.NBThreshold = tcc.nbThreshold
	cfg.BinaryOnly = tcc.binaryOnly
	return cfg, nil
}

func (tcc *trainCmdConfig) trainer(cfg *tree.Config) (*streamdm.Trainer, error) {
	if tcc.modelInput == "" {
		return streamdm.NewTrainer(cfg, tcc.Logger())
	}
	model, err := loadModel(tcc.modelInput, cfg)
	if err != nil {
		return nil, err
	}
	return streamdm.Resume(model, tcc.Logger()), nil
}

func (tcc *trainCmdConfig) queue() (queue.Queue, error) {
	if tcc.queueAddr == "" {
		return queue.New(), nil
	}
	tcc.Logger().Debugw("queueing batches on redis", "addr", tcc.queueAddr, "id", tcc.queueID)
	rc := redis.NewClient(&redis.Options{
		Addr:     tcc.queueAddr,
		Password: tcc.queuePassword,
		DB:       tcc.queueDB,
	})
	return redisq.New(tcc.queueID, rc, tcc.taskMaxRun, redisq.NewJSONEncodeDecoder()), nil
}

func (tcc *trainCmdConfig) train(trainer *streamdm.Trainer, q queue.Queue) error {
	errs := make(chan error, tcc.workers)
	var wg sync.WaitGroup
	for i := 0; i < tcc.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- streamdm.Work(tcc.Context(), trainer, q, 200*time.Millisecond)
		}()
	}
	wg.Wait()
	close(errs)
	q.Stop(tcc.Context())
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (tcc *trainCmdConfig) Context() context.Context {
	tcc.setContextAndCancelFunc()
	return tcc.ctx
}

func (tcc *trainCmdConfig) ContextCancelFunc() context.CancelFunc {
	tcc.setContextAndCancelFunc()
	return tcc.cancelFunc
}

func (tcc *trainCmdConfig) setContextAndCancelFunc() {
	if tcc.ctx == nil {
		tcc.ctx, tcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func splitCriterion(c string) (split.Criterion, error) {
	parsed := strings.Split(c, ":")
	params := parsed[1:]
	switch parsed[0] {
	case "info-gain":
		minBranchFraction := 0.01
		if len(params) > 0 {
			var err error
			minBranchFraction, err = strconv.ParseFloat(params[0], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing info-gain min branch fraction parameter: %v", err)
			}
		}
		return split.InfoGain{MinBranchFraction: minBranchFraction}, nil
	case "gini":
		return split.GiniSplit{}, nil
	}
	return nil, fmt.Errorf("unknown split criterion %s", c)
}
