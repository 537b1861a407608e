package main

import (
    "flag"
    "fmt"
    "log"
    "os"
    "os/signal"
    "syscall"
    "pico-service/pico"
)

var (
    version     = flag.Bool("version", false, "Print version info")
    help        = flag.Bool("help", false, "Print help")
    logLevel    = flag.Int("log", 3, "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
    redisServer = flag.String("redis_server", "127.0.0.1", "Redis server address (empty disables Redis)")
    redisPort   = flag.Int("redis_port", 6379, "Redis server port")
    listenPort  = flag.Int("listen_port", 43210, "UDP port for device discovery and telemetry")
    devicePort  = flag.Int("device_port", pico.DevicePort, "TCP port for device configuration")
    profileName = flag.String("profile", "celsius", "Calibration profile (celsius or absolute)")
    noStdout    = flag.Bool("no_stdout", false, "Suppress the per-cycle JSON document on stdout")
)

const (
    ProjectName    = "pico-service"
    ProjectVersion = "1.0.0"
)

func printVersion() {
    fmt.Printf("%s v%s\n", ProjectName, ProjectVersion)
}

func printHelp() {
    printVersion()
    flag.PrintDefaults()
}

func main() {
    flag.Parse()

    if *version {
        printVersion()
        os.Exit(0)
    }

    if *help {
        printHelp()
        os.Exit(0)
    }

    // Validate log level
    if *logLevel < 0 || *logLevel > 4 {
        log.Fatalf("invalid log level %d", *logLevel)
    }

    // DEBUG=pico raises the effective level, matching the vendor tooling's
    // environment gate.
    if os.Getenv("DEBUG") == "pico" {
        *logLevel = int(LogLevelDebug)
    }

    profile, err := pico.ParseProfile(*profileName)
    if err != nil {
        log.Fatalf("invalid profile: %v", err)
    }
    log.Printf("Selected calibration profile: %s", profile)

    opts := &Options{
        LogLevel:        LogLevel(*logLevel),
        RedisServerAddr: *redisServer,
        RedisServerPort: uint16(*redisPort),
        ListenPort:      *listenPort,
        DevicePort:      *devicePort,
        Profile:         profile,
        NoStdout:        *noStdout,
    }

    app, err := NewMonitorApp(opts)
    if err != nil {
        log.Fatalf("failed to create monitor app: %v", err)
    }
    defer app.Destroy()

    errChan := make(chan error, 1)
    go func() {
        errChan <- app.Run()
    }()

    // Handle SIGINT and SIGTERM
    sigChan := make(chan os.Signal, 1)
    signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

    select {
    case sig := <-sigChan:
        app.log.Info("Received signal %v, shutting down", sig)
    case err := <-errChan:
        if err != nil {
            app.Destroy()
            log.Fatalf("monitor failed: %v", err)
        }
    }
}
