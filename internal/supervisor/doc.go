// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package supervisor runs the long-lived services of telebridge under a
suture v4 supervision tree.

# Layout

	RootSupervisor ("telebridge")
	├── HubSupervisor ("hub-layer")
	│   ├── bridge.Bridge (closes the five topic hubs on shutdown)
	│   └── services.ConfigWatchService (if a config file is in use)
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Each layer counts failures on its own. The hubs handle upstream outages
internally with their tiered reconnect, so the hub layer normally never
restarts anything; a crashing HTTP listener is restarted by the API layer
without touching the hubs.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddHubService(b)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Supervisor events (service failures, restarts, backoff) are logged through
sutureslog into the zerolog-backed slog handler from the logging package.
*/
package supervisor
