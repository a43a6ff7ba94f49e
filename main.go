package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	wsstream "github.com/sourcegraph/jsonrpc2/websocket"
	"gopkg.in/yaml.v3"

	"github.com/bridgels/bridgels/langserver"
	"github.com/bridgels/bridgels/wire"
)

const name = "bridgels"

const version = "0.1.0"

var revision = "HEAD"

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func main() {
	var yamlfile string
	var logfile string
	var loglevel int
	var dump bool
	var showVersion bool
	var listen string
	flag.StringVar(&yamlfile, "c", "", "path to config.yaml")
	flag.StringVar(&logfile, "log", "", "logfile")
	flag.IntVar(&loglevel, "loglevel", 0, "loglevel")
	flag.BoolVar(&dump, "d", false, "dump configuration")
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.StringVar(&listen, "listen", "", "serve the editor channel on a websocket address instead of stdio")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s %s (rev: %s)\n", name, version, revision)
		return
	}

	config := langserver.NewConfig()
	if yamlfile != "" {
		loaded, err := langserver.LoadConfig(yamlfile)
		if err != nil {
			log.Fatal(err)
		}
		config = loaded
	}
	if loglevel != 0 {
		config.LogLevel = loglevel
	}
	if logfile == "" {
		logfile = config.LogFile
	}

	if dump {
		err := yaml.NewEncoder(os.Stdout).Encode(config)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	log.SetOutput(os.Stderr)
	config.LogWriter = os.Stderr
	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		log.SetOutput(f)
		config.LogWriter = f
	}

	if listen != "" {
		serveWebsocket(listen, config)
		return
	}

	handler := langserver.NewHandler(config)
	stream := wire.NewStream(os.Stdin, os.Stdout, stdrwc{}, nil)
	conn := jsonrpc2.NewConn(context.Background(), stream, handler)
	<-conn.DisconnectNotify()
}

// serveWebsocket accepts editor connections over a websocket, one language
// server instance per connection.
func serveWebsocket(addr string, config *langserver.Config) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade: %v", err)
			return
		}
		handler := langserver.NewHandler(config)
		conn := jsonrpc2.NewConn(context.Background(), wsstream.NewObjectStream(ws), handler)
		<-conn.DisconnectNotify()
	})
	log.Printf("%s listening on %s", name, addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
