package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gl-gateway/gl-gateway/internal/config"
	"github.com/gl-gateway/gl-gateway/internal/logging"
	"github.com/gl-gateway/gl-gateway/internal/server"
	"github.com/gl-gateway/gl-gateway/internal/server/routes"
	"github.com/gl-gateway/gl-gateway/internal/version"
)

const shutdownTimeout = 15 * time.Second

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(stdErr, "读取 .env 失败: %v\n", err)
		os.Exit(2)
	}
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// loadDotEnv 把 .env 中的变量注入环境，文件不存在时忽略。
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["tenants"] = cfg.TenantIDs()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 租户快照 → 路由表 → 分发器 → 各端口 Fiber 服务与后台任务。
	rt, err := server.Bootstrap(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化运行时失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["tenants"] = cfg.TenantIDs()
	fields["listen_ports"] = cfg.Global.ListenPorts
	fields["routes"] = rt.Dispatcher.Routes().Len()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, rt, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	flags := flag.NewFlagSet("gl-gateway", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	flags.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 GL_GATEWAY_CONFIG 覆盖）")
	flags.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	flags.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := flags.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("GL_GATEWAY_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// serve 在每个监听端口上启动 Fiber 服务并运行后台任务，ctx 取消后优雅退出。
func serve(ctx context.Context, cfg *config.Config, rt *server.Runtime, logger *logrus.Logger) error {
	// release 在优雅退出超时后取消，放弃仍在等待处理器的请求。
	release, cancelRelease := context.WithCancel(context.Background())
	defer cancelRelease()

	settings := cfg.Global.PolicySettings()
	apps := make([]*fiber.App, 0, len(cfg.Global.ListenPorts))
	for _, port := range cfg.Global.ListenPorts {
		diagnostics := port != settings.TorPort
		app, err := server.NewApp(server.AppOptions{
			Logger:      logger,
			Dispatcher:  rt.Dispatcher,
			Tenants:     rt.Tenants,
			Policy:      settings,
			ListenPort:  port,
			BodyLimit:   server.BodyLimitFor(cfg.Global.MaxUploadBytes),
			Diagnostics: diagnostics,
			BaseContext: release,
		})
		if err != nil {
			return err
		}
		if !diagnostics {
			apps = append(apps, app)
			continue
		}
		routes.RegisterDiagnostics(app, routes.Diagnostics{
			Routes:  rt.Dispatcher.Routes(),
			Tenants: rt.Tenants,
			Metrics: rt.Metrics,
			Version: rt.VersionCheck,
		})
		apps = append(apps, app)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, app := range apps {
		app, port := app, cfg.Global.ListenPorts[i]
		g.Go(func() error {
			logger.WithFields(logrus.Fields{
				"action": "listen",
				"port":   port,
			}).Info("Fiber 服务启动")
			return app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
		})
	}
	g.Go(func() error {
		return rt.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopRelease := context.AfterFunc(shutdownCtx, cancelRelease)
		defer stopRelease()

		var errs []error
		for _, app := range apps {
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := rt.Dispatcher.Wait(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("等待处理器结束: %w", err))
		}
		logger.WithField("action", "shutdown").Info("服务已停止")
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
