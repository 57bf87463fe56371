package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/instrument-tool/scpicon/internal/config"
	"github.com/instrument-tool/scpicon/internal/simulator"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "scpicon",
		Short: "Interactive SCPI console for VISA instruments",
		Long: `scpicon sends SCPI commands to laboratory instruments (multimeters,
oscilloscopes, generators, supplies, RF analyzers and electronic loads)
over raw TCP sockets, serial ports and Prologix GPIB controllers.

Without a subcommand it starts the interactive console.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" or $SCPICON_CONFIG)")

	root.AddCommand(
		&cobra.Command{
			Use:   "console",
			Short: "Start the interactive console",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConsole(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List available VISA resources",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLines(cmd.Context(), configPath, []string{"devicelist"})
			},
		},
		&cobra.Command{
			Use:   "exec <line>...",
			Short: "Run console lines non-interactively",
			Example: `  scpicon exec "deviceselect TCPIP0::192.168.1.50::5025::SOCKET" "id" "get_error"
  scpicon exec "deviceselect ASRL/dev/ttyUSB0::INSTR" "oscope_capture_data wave.csv"`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLines(cmd.Context(), configPath, args)
			},
		},
		newSimulateCommand(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "scpicon %s\n", Version)
			},
		},
	)
	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runConsole(parent context.Context, configPath string) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	a, err := newApp(configPath, interactive)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(parent)
	defer stop()

	c := a.newConsole(os.Stdout)
	if interactive {
		c.RunInteractive(ctx)
	} else {
		c.Run(ctx, os.Stdin)
	}
	return nil
}

func runLines(parent context.Context, configPath string, lines []string) error {
	a, err := newApp(configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(parent)
	defer stop()

	c := a.newConsole(os.Stdout)
	defer c.Close()
	for _, line := range lines {
		if ctx.Err() != nil {
			c.Interrupt()
			return nil
		}
		if c.Execute(ctx, line) {
			return nil
		}
	}
	return nil
}

func newSimulateCommand(configPath *string) *cobra.Command {
	var port int
	var idn string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated SCPI instrument on a raw TCP socket",
		Long: `simulate listens for raw SCPI socket connections (the TCPIP SOCKET
resource type) and answers as a combined bench instrument: identification,
error queue, supply output, multimeter and scope measurements, waveform
transfer, screen capture and RF markers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			for _, w := range cfg.Warnings {
				log.Printf("Warning: %s", w)
			}

			if cmd.Flags().Changed("port") {
				cfg.Simulator.Port = port
			}
			if cmd.Flags().Changed("idn") {
				cfg.Simulator.IDN = idn
			}

			srv, err := simulator.NewServer(simulator.Config{
				Addr:         net.JoinHostPort("", strconv.Itoa(cfg.Simulator.Port)),
				AllowedCIDRs: cfg.Simulator.AllowedCIDRs,
				IdleTimeout:  cfg.Simulator.IdleTimeout(),
			}, simulator.NewInstrument(cfg.Simulator.IDN))
			if err != nil {
				return err
			}
			if err := srv.Listen(); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			go func() {
				<-ctx.Done()
				log.Println("Shutting down simulator...")
				if err := srv.Close(); err != nil {
					log.Printf("Simulator shutdown error: %v", err)
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Simulator listening on %s (resource %s)\n",
				srv.Addr(), simulatedResource(srv.Addr()))
			return srv.Serve()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config, 5025)")
	cmd.Flags().StringVar(&idn, "idn", "", "identification string returned by *IDN?")
	return cmd
}

// simulatedResource returns the VISA resource string a local client would
// use to reach addr.
func simulatedResource(addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return "TCPIP0::" + strings.Join([]string{"127.0.0.1", port, "SOCKET"}, "::")
}
