package flags

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/registrar-controller/api"
	"github.com/ruteri/registrar-controller/common"
	"github.com/ruteri/registrar-controller/gateway"
	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/registrar"
	"github.com/ruteri/registrar-controller/units"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ConnectSession dials the RPC endpoint and builds a session for the
// configured registrar controller. The returned close function releases the
// RPC connection.
func ConnectSession(cCtx *cli.Context, logger *slog.Logger) (*registrar.Session, func(), error) {
	controller, err := interfaces.ParseAddress(cCtx.String(RegistrarContractFlag.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse registrar contract address: %w", err)
	}

	var sessionOpts []registrar.SessionOption
	sessionOpts = append(sessionOpts, registrar.WithLogger(logger))
	if limit := cCtx.Uint64(GasLimitFlag.Name); limit != 0 {
		sessionOpts = append(sessionOpts, registrar.WithGasLimit(limit))
	}
	if price := cCtx.String(GasPriceFlag.Name); price != "" {
		gasPrice, err := units.ParseDecimalToBaseUnits(price, units.Gwei)
		if err != nil {
			return nil, nil, fmt.Errorf("could not parse gas price: %w", err)
		}
		sessionOpts = append(sessionOpts, registrar.WithGasPrice(gasPrice))
	}

	rpcAddress := cCtx.String(RpcAddrFlag.Name)
	logger.Debug("Connecting to Ethereum RPC", "address", rpcAddress)
	ethClient, err := ethclient.Dial(rpcAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("could not dial RPC: %w", err)
	}

	var gatewayOpts []gateway.Option
	if cCtx.Bool(EstimateGasFlag.Name) {
		gatewayOpts = append(gatewayOpts, gateway.WithGasEstimation())
	}
	gw, err := gateway.NewEthGateway(ethClient, logger, gatewayOpts...)
	if err != nil {
		ethClient.Close()
		return nil, nil, err
	}

	return registrar.NewSession(gw, controller, sessionOpts...), ethClient.Close, nil
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "http://127.0.0.1:8545",
	Usage:   "address to connect to RPC",
	EnvVars: []string{"RPC_ADDR"},
}

var RegistrarContractFlag = &cli.StringFlag{
	Name:     "registrar-contract",
	Required: true,
	Usage:    "ETHRegistrarController contract address, 40-char hex string",
	EnvVars:  []string{"REGISTRAR_CONTRACT"},
}

var GasLimitFlag = &cli.Uint64Flag{
	Name:  "gas-limit",
	Usage: "gas limit attached to every transaction (0 leaves it to the signer)",
}

var GasPriceFlag = &cli.StringFlag{
	Name:  "gas-price",
	Usage: "gas price in gwei attached to every transaction, e.g. 1.5",
}

var EstimateGasFlag = &cli.BoolFlag{
	Name:  "estimate-gas",
	Value: false,
	Usage: "fill in transaction gas with eth_estimateGas when no gas limit is set",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "registrar",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var SessionFlags = []cli.Flag{
	RpcAddrFlag,
	RegistrarContractFlag,
	GasLimitFlag,
	GasPriceFlag,
	EstimateGasFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
