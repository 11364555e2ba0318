// Command tunexctl inspects and exercises a running tunnel extension.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kingpin"

	"github.com/acornvpn/tunex"
	"github.com/acornvpn/tunex/extconf"
	"github.com/acornvpn/tunex/extension"
	"github.com/acornvpn/tunex/oslog"
)

func main() {
	rootCmd := newCommandLine()
	discoverCmd := newDiscoverCommand(rootCmd)
	statusCmd, statusOpt := newStatusCommand(rootCmd)
	logCmd, logOpt := newLogCommand(rootCmd)
	checkCmd, checkOpt := newCheckCommand(rootCmd)
	switch kingpin.MustParse(rootCmd.Parse(os.Args[1:])) {
	case discoverCmd.FullCommand():
		discover()
	case statusCmd.FullCommand():
		status(*statusOpt)
	case logCmd.FullCommand():
		emitLog(*logOpt)
	case checkCmd.FullCommand():
		check(*checkOpt)
	}
}

func newCommandLine() *kingpin.Application {
	return kingpin.New("tunexctl", "tunnel extension inspection tool")
}

type statusOption struct {
	Socket string
}

type logOption struct {
	Subsystem string
	Category  string
	Level     string
	Message   string
}

type checkOption struct {
	Config string
}

func newDiscoverCommand(root *kingpin.Application) *kingpin.CmdClause {
	return root.Command("discover", "locate the tunnel file descriptor in this process")
}

func newStatusCommand(root *kingpin.Application) (*kingpin.CmdClause, *statusOption) {
	opt := statusOption{}
	cmd := root.Command("status", "query a running extension over its control socket")
	cmd.Flag("socket", "control socket path").StringVar(&opt.Socket)
	return cmd, &opt
}

func newLogCommand(root *kingpin.Application) (*kingpin.CmdClause, *logOption) {
	opt := logOption{}
	cmd := root.Command("log", "emit a message to the unified log")
	cmd.Flag("subsystem", "log subsystem").Default("com.acornvpn.tunex").StringVar(&opt.Subsystem)
	cmd.Flag("category", "log category").Default("tunexctl").StringVar(&opt.Category)
	cmd.Flag("level", "log level (debug, info, default, error, fault)").Default("default").StringVar(&opt.Level)
	cmd.Arg("message", "message to log").Required().StringVar(&opt.Message)
	return cmd, &opt
}

func newCheckCommand(root *kingpin.Application) (*kingpin.CmdClause, *checkOption) {
	opt := checkOption{}
	cmd := root.Command("check", "validate a configuration file")
	cmd.Flag("config", "configuration file").Required().StringVar(&opt.Config)
	return cmd, &opt
}

func checkError(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func discover() {
	client, err := tunex.New()
	checkError(err)
	defer client.Close()

	fd, err := client.TunnelFD()
	checkError(err)
	name, err := client.TunnelName(fd)
	checkError(err)

	fmt.Printf("tunnel descriptor: %d (%s)\n", fd, name)
}

func status(opt statusOption) {
	st, err := extension.QueryControl(opt.Socket)
	checkError(err)

	fmt.Printf("running: %t\n", st.Running)
	fmt.Printf("settings version: %d\n", st.SettingsVersion)
	fmt.Printf("settings: %s\n", st.Settings)
}

func emitLog(opt logOption) {
	level, err := oslog.ParseLevel(opt.Level)
	checkError(err)

	logger, err := oslog.Open(opt.Subsystem, opt.Category)
	checkError(err)

	logger.Log(level, opt.Message)
}

func check(opt checkOption) {
	f, err := extconf.Load(opt.Config)
	checkError(err)

	log.Printf("configuration ok: endpoint %s, mtu %d\n", f.Tunnel.Endpoint, f.Tunnel.MTU)
}
