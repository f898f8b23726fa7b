package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dnserver/dnserver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	port     int
	upstream string
	noProxy  bool
	logLevel uint32
	syslog   string
}

func main() {
	var opt options
	cmd := &cobra.Command{
		Use:   "dnserver <zones-file>",
		Short: "DNS server answering from a zones file",
		Long: `DNS server answering from a zones file.

It listens for DNS requests over UDP and TCP and answers
them from the records defined in the zones file. Queries
with no matching record are forwarded to an upstream DNS
server, rotating across them when several are given.
`,
		Example: `  dnserver zones.toml
  dnserver --port 5053 --upstream 8.8.8.8,8.8.4.4 zones.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(opt, args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().IntVarP(&opt.port, "port", "p", dnserver.DefaultDNSPort, "port to listen on, UDP and TCP")
	cmd.Flags().StringVarP(&opt.upstream, "upstream", "u", dnserver.DefaultUpstream, "upstream DNS servers, comma-separated host[:port]")
	cmd.Flags().BoolVar(&opt.noProxy, "no-upstream", false, "answer from local records only")
	cmd.Flags().Uint32VarP(&opt.logLevel, "log-level", "l", 4, "log level, 0=silent .. 6=trace")
	cmd.Flags().StringVar(&opt.syslog, "syslog", "", "log queries to this syslog address")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func start(opt options, args []string) error {
	dnserver.Log.SetLevel(logrus.Level(opt.logLevel))

	upstream := opt.upstream
	if opt.noProxy {
		upstream = ""
	}
	serverOpt := dnserver.ServerOptions{
		Ports: []dnserver.Port{{Number: opt.port}},
	}
	if opt.syslog != "" {
		serverOpt.Syslog = &dnserver.SyslogOptions{Address: opt.syslog, Tag: "dnserver"}
	}

	server, err := dnserver.NewDNSServerFromConfig(args[0], upstream, serverOpt)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return server.Stop()
}
