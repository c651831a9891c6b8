package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"stocxer-screener/internal/entity"
	"stocxer-screener/internal/screener/config"
	"stocxer-screener/internal/screener/dto"
	"stocxer-screener/internal/screener/evaluator"
	"stocxer-screener/internal/screener/repository"
	"stocxer-screener/pkg/common"
	"stocxer-screener/pkg/logger"
	"stocxer-screener/pkg/telegram"
	"stocxer-screener/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScanService runs signal scans over a symbol universe.
type ScanService interface {
	// Enqueue validates the request and publishes it on the scan stream.
	Enqueue(ctx context.Context, req dto.ScanRequest) (string, error)
	// Run executes a scan end to end and returns the summary row.
	Run(ctx context.Context, scanID string, req dto.ScanRequest) (*entity.ScreenerScan, error)
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
}

type scanService struct {
	cfg         *config.Config
	log         *logger.Logger
	redisClient *redis.Client
	marketData  repository.MarketDataRepository
	scanRepo    repository.ScreenerScanRepository
	eval        *evaluator.Evaluator
	telegramBot telegram.Notifier
}

// NewScanService creates a ScanService using the given evaluator.
func NewScanService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	marketData repository.MarketDataRepository,
	scanRepo repository.ScreenerScanRepository,
	eval *evaluator.Evaluator,
	telegramBot telegram.Notifier) ScanService {
	return &scanService{
		cfg:         cfg,
		log:         log,
		redisClient: redisClient,
		marketData:  marketData,
		scanRepo:    scanRepo,
		eval:        eval,
		telegramBot: telegramBot,
	}
}

func (s *scanService) Enqueue(ctx context.Context, req dto.ScanRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	scanID := uuid.NewString()
	payload, err := json.Marshal(dto.StreamDataScan{ScanID: scanID, Request: req})
	if err != nil {
		return "", err
	}

	if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamScreenerScan,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.cfg.Redis.StreamMaxLen,
	}).Err(); err != nil {
		s.log.Error("Failed to enqueue scan", logger.ErrorField(err), logger.StringField("scan_id", scanID))
		return "", err
	}

	s.log.Info("Scan enqueued",
		logger.StringField("scan_id", scanID),
		logger.IntField("symbols", len(req.Symbols)),
		logger.StringField("signal_type", req.SignalType))

	return scanID, nil
}

func (s *scanService) Run(ctx context.Context, scanID string, req dto.ScanRequest) (*entity.ScreenerScan, error) {
	// Invalid configuration fails the whole scan before any evaluation.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	workers := s.cfg.Screener.MaxConcurrentSymbols
	if workers <= 0 {
		workers = 4
	}
	if workers > len(req.Symbols) {
		workers = len(req.Symbols)
	}

	var (
		mu      sync.Mutex
		signals []*evaluator.Signal
		wg      sync.WaitGroup
	)

	jobs := make(chan string)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			for symbol := range jobs {
				signal, err := s.evaluateSymbol(ctx, symbol, req)
				if err != nil {
					// Recoverable per symbol: skip and keep scanning.
					s.log.Warn("Symbol skipped",
						logger.StringField("scan_id", scanID),
						logger.StringField("symbol", symbol),
						logger.ErrorField(err))
					continue
				}
				mu.Lock()
				signals = append(signals, signal)
				mu.Unlock()
			}
		})
	}

	for _, symbol := range req.Symbols {
		jobs <- symbol
	}
	close(jobs)
	// The summary aggregates over the whole batch, so it waits for every
	// symbol evaluation to finish.
	wg.Wait()

	results := make([]*entity.ScreenerResult, 0, len(signals))
	var buySignals, sellSignals int
	for _, signal := range signals {
		if signal.Action.IsBuyClass() {
			buySignals++
		}
		if signal.Action.IsSellClass() {
			sellSignals++
		}
		results = append(results, signal.ToEntity(scanID, req.UserID))
	}

	params, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	scan := &entity.ScreenerScan{
		ScanID:        scanID,
		UserID:        req.UserID,
		StocksScanned: len(req.Symbols),
		SignalsFound:  len(results),
		BuySignals:    buySignals,
		SellSignals:   sellSignals,
		MinConfidence: req.MinConfidence,
		ScanParams:    params,
	}

	if err := s.scanRepo.CreateWithResults(ctx, scan, results); err != nil {
		s.log.Error("Failed to persist scan", logger.ErrorField(err), logger.StringField("scan_id", scanID))
		return nil, err
	}

	s.log.Info("Scan complete",
		logger.StringField("scan_id", scanID),
		logger.IntField("stocks_scanned", scan.StocksScanned),
		logger.IntField("signals_found", scan.SignalsFound),
		logger.IntField("buy_signals", buySignals),
		logger.IntField("sell_signals", sellSignals))

	s.notify(scan, results)

	return scan, nil
}

func (s *scanService) evaluateSymbol(ctx context.Context, symbol string, req dto.ScanRequest) (*evaluator.Signal, error) {
	snapshot, err := s.marketData.GetSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if !req.IsOptions() {
		return s.eval.EvaluateStock(*snapshot, req.MinConfidence)
	}

	chain, err := s.marketData.GetOptionChain(ctx, symbol, req.ExpiryBucket)
	if err != nil {
		return nil, err
	}

	filter := evaluator.OptionFilter{
		MinVolume:       req.MinVolume,
		MinOpenInterest: req.MinOpenInterest,
	}
	return s.eval.EvaluateOption(*snapshot, *chain, filter, req.MinConfidence)
}

func (s *scanService) notify(scan *entity.ScreenerScan, results []*entity.ScreenerResult) {
	if s.telegramBot == nil {
		return
	}

	sorted := make([]*entity.ScreenerResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	var top []*entity.ScreenerResult
	for _, r := range sorted {
		if evaluator.Action(r.Action).IsDirectional() {
			top = append(top, r)
		}
		if len(top) == 5 {
			break
		}
	}

	if err := s.telegramBot.SendMessage(telegram.FormatScanSummaryMessage(scan, top)); err != nil {
		s.log.Error("Failed to send scan notification", logger.ErrorField(err), logger.StringField("scan_id", scan.ScanID))
	}
}

func (s *scanService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamScreenerScan, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block briefly to allow graceful shutdown
	}).Result()
	if err != nil {
		// Context cancellation and empty reads are expected during
		// shutdown or idle periods.
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, ok := s.decodeMessage(message)
	if !ok {
		return
	}

	s.log.Debug("Processing scan task",
		logger.StringField("scan_id", streamData.ScanID),
		logger.IntField("symbols", len(streamData.Request.Symbols)))

	if _, err := s.Run(ctx, streamData.ScanID, streamData.Request); err != nil {
		if errors.Is(err, dto.ErrInvalidScanConfig) {
			// A bad configuration never becomes valid on retry.
			s.log.Error("Dropping scan with invalid configuration", logger.ErrorField(err), logger.StringField("scan_id", streamData.ScanID))
			_ = s.ackNDel(ctx, common.RedisStreamScreenerScan, message.ID)
			return
		}
		s.log.Error("Failed to run scan", logger.ErrorField(err), logger.Field("message_id", message.ID), logger.StringField("scan_id", streamData.ScanID))
		return
	}

	if err := s.ackNDel(ctx, common.RedisStreamScreenerScan, message.ID); err != nil {
		s.log.Error("Failed to acknowledge scan task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.log.Debug("Scan task processed successfully", logger.StringField("scan_id", streamData.ScanID))
}

func (s *scanService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamScreenerScan,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Screener.RedisStreamScanMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim scan task on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry: no pending messages found", logger.StringField("stream", common.RedisStreamScreenerScan))
		return
	}

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamScreenerScan,
		Group:  common.RedisStreamGroup,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}

	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exists on xautoclaim",
			logger.StringField("stream", common.RedisStreamScreenerScan),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	streamData, ok := s.decodeMessage(msg)
	if !ok {
		return
	}

	if _, err := s.Run(ctx, streamData.ScanID, streamData.Request); err != nil {
		s.log.Error("Failed to run scan on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID), logger.StringField("scan_id", streamData.ScanID))

		if pendingInfo[0].RetryCount+1 >= int64(s.cfg.Screener.RedisStreamScanMaxRetry) {
			s.log.Error("pending msg retry count exceeded",
				logger.StringField("stream", common.RedisStreamScreenerScan),
				logger.StringField("message_id", msg.ID),
				logger.StringField("scan_id", streamData.ScanID),
				logger.IntField("retry_count", int(pendingInfo[0].RetryCount+1)),
				logger.IntField("max_retry", s.cfg.Screener.RedisStreamScanMaxRetry))

			rawJSON, _ := json.Marshal(streamData)
			errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamScreenerScan)
			if s.telegramBot != nil {
				if err := s.telegramBot.SendMessage(telegram.FormatErrorAlertMessage(time.Now(), errType, err.Error(), string(rawJSON))); err != nil {
					s.log.Error("Failed to send retry exceeded alert", logger.ErrorField(err), logger.StringField("scan_id", streamData.ScanID))
				}
			}
			if err := s.ackNDel(ctx, common.RedisStreamScreenerScan, msg.ID); err != nil {
				s.log.Error("Failed to acknowledge scan task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
			}
		}
		return
	}

	if err := s.ackNDel(ctx, common.RedisStreamScreenerScan, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge scan task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}

	s.log.Info("Retry scan task processed successfully", logger.StringField("scan_id", streamData.ScanID))
}

// ackNDel acknowledges a stream message and removes it so the stream
// does not grow unbounded.
func (s *scanService) ackNDel(ctx context.Context, stream, messageID string) error {
	if err := s.redisClient.XAck(ctx, stream, common.RedisStreamGroup, messageID).Err(); err != nil {
		return err
	}
	return s.redisClient.XDel(ctx, stream, messageID).Err()
}

func (s *scanService) decodeMessage(msg redis.XMessage) (dto.StreamDataScan, bool) {
	var streamData dto.StreamDataScan

	payload, ok := msg.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", msg.ID))
		return streamData, false
	}

	if err := json.Unmarshal([]byte(payload), &streamData); err != nil {
		s.log.Error("Failed to unmarshal scan payload", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return streamData, false
	}

	return streamData, true
}
