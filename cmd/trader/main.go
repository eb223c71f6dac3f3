package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rangebet/rangebet-api/internal/client/chain"
	"github.com/rangebet/rangebet-api/internal/client/relay"
	"github.com/rangebet/rangebet-api/internal/constants"
	"github.com/rangebet/rangebet-api/internal/logger"
	"github.com/rangebet/rangebet-api/internal/session"
	"github.com/rangebet/rangebet-api/internal/signer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: trader <command> [args]

commands:
  create                                      create a new trading session
  status                                      show the current session
  bet <timeperiodId> <priceMin> <priceMax> <amountUsd>
                                              place a range bet
  revoke                                      revoke the current session`)
	os.Exit(2)
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = "development"
	}
	logger.InitLogger(stage)
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
	}

	requiredEnvVars := []string{"RELAY_URL", "RPC_URL", "CONTRACT_ADDRESS", "WALLET_PRIVATE_KEY"}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" {
			logger.Fatal("missing required environment variable", zap.String("name", envVar))
		}
	}

	contractAddress := os.Getenv("CONTRACT_ADDRESS")
	if contractAddress == constants.ZeroAddress {
		logger.Fatal("CONTRACT_ADDRESS must not be the zero address")
	}
	contract := common.HexToAddress(contractAddress)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rpc, err := ethclient.Dial(os.Getenv("RPC_URL"))
	if err != nil {
		logger.Fatal("failed to connect to RPC", zap.Error(err))
	}
	defer rpc.Close()

	// Never trust a configured chain ID; ask the connected node.
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		logger.Fatal("failed to read chain ID", zap.Error(err))
	}

	wallet, err := signer.NewLocalWalletFromHex(os.Getenv("WALLET_PRIVATE_KEY"))
	if err != nil {
		logger.Fatal("failed to parse wallet key", zap.Error(err))
	}

	nonces, err := chain.NewNonceSource(rpc, contract)
	if err != nil {
		logger.Fatal("failed to create nonce source", zap.Error(err))
	}

	sessionDir := os.Getenv("SESSION_DIR")
	if sessionDir == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			logger.Fatal("failed to resolve home directory", zap.Error(homeErr))
		}
		sessionDir = filepath.Join(home, ".rangebet", "sessions")
	}

	service := session.NewService(session.Config{
		VerifyingContract: contract,
	}, relay.NewClient(os.Getenv("RELAY_URL")), nonces, session.NewFileStore(sessionDir))

	if err := service.Connect(ctx, wallet, chainID); err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}

	switch os.Args[1] {
	case "create":
		runCreate(ctx, service)
	case "status":
		runStatus(service)
	case "bet":
		runBet(ctx, service, os.Args[2:])
	case "revoke":
		runRevoke(ctx, service)
	default:
		usage()
	}
}

func runCreate(ctx context.Context, service *session.Service) {
	if err := service.CreateSession(ctx); err != nil {
		logger.Fatal("session creation failed", zap.Error(err))
	}
	info := service.GetSessionInfo()
	fmt.Printf("session created: key=%s expires=%s\n",
		info.SessionKeyAddress.Hex(), info.Expiry.Format(time.RFC3339))
}

func runStatus(service *session.Service) {
	info := service.GetSessionInfo()
	if info == nil {
		fmt.Println("no active session")
		return
	}
	if info.IsExpired {
		fmt.Println("session expired")
		return
	}
	fmt.Printf("session active: key=%s expires=%s remaining=%s\n",
		info.SessionKeyAddress.Hex(), info.Expiry.Format(time.RFC3339), info.RemainingTime)
}

func runBet(ctx context.Context, service *session.Service, args []string) {
	if len(args) != 4 {
		usage()
	}

	timeperiodID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		logger.Fatal("invalid timeperiod id", zap.String("value", args[0]))
	}
	priceMin, err := decimal.NewFromString(args[1])
	if err != nil {
		logger.Fatal("invalid priceMin", zap.String("value", args[1]))
	}
	priceMax, err := decimal.NewFromString(args[2])
	if err != nil {
		logger.Fatal("invalid priceMax", zap.String("value", args[2]))
	}
	amount, err := decimal.NewFromString(args[3])
	if err != nil {
		logger.Fatal("invalid amount", zap.String("value", args[3]))
	}

	txHash, err := service.PlaceOrder(ctx, timeperiodID, priceMin, priceMax, amount)
	if err != nil {
		logger.Fatal("order failed", zap.Error(err))
	}
	fmt.Printf("order accepted: tx=%s\n", txHash)
}

func runRevoke(ctx context.Context, service *session.Service) {
	if err := service.RevokeSession(ctx); err != nil {
		logger.Fatal("revocation failed", zap.Error(err))
	}
	fmt.Println("session revoked")
}
