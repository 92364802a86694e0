package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"

	bnet "github.com/bio-routing/bio-rd/net"
	"github.com/bio-routing/tflow2/convert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowshed/nf9/cmd/nf9dump/config"
	"github.com/flowshed/nf9/pkg/decoder"
	"github.com/flowshed/nf9/pkg/store"

	log "github.com/sirupsen/logrus"
)

var (
	configFilePath = flag.String("config.file", "nf9dump.yaml", "Config file path (YAML)")
)

func main() {
	flag.Parse()

	cfg, err := config.GetConfig(*configFilePath)
	if err != nil {
		log.WithError(err).Fatal("Unable to get config")
	}

	d := decoder.New(&decoder.Config{
		StoreSamplingRates: cfg.StoreSamplingRates,
		MaxMemoryUsage:     cfg.MaxMemoryUsage,
		TemplateExpireTime: cfg.TemplateExpireTime,
		OptionExpireTime:   cfg.OptionExpireTime,
	})
	prometheus.MustRegister(d)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Fatal(http.ListenAndServe(cfg.ListenHTTP, nil))
	}()

	addr, err := net.ResolveUDPAddr("udp", cfg.ListenNetflow)
	if err != nil {
		log.WithError(err).Fatal("Unable to resolve UDP address")
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.WithError(err).Fatal("ListenUDP failed")
	}
	defer conn.Close()

	log.Infof("Listening for NetFlow v9 on %s", cfg.ListenNetflow)

	if err := packetWorker(conn, d); err != nil {
		log.WithError(err).Fatal("packetWorker failed")
	}
}

// packetWorker reads NetFlow packets from the socket and dumps every decoded
// flowset.
func packetWorker(conn *net.UDPConn, d *decoder.Decoder) error {
	buffer := make([]byte, 8960)
	for {
		length, remote, err := conn.ReadFromUDP(buffer)
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		remote4 := remote.IP.To4()
		if remote4 != nil {
			remote.IP = remote4
		}

		remoteAddr, err := bnet.IPFromBytes([]byte(remote.IP))
		if err != nil {
			log.WithError(err).Errorf("Unable to convert net.IP to bnet.IP: %q", remote)
			continue
		}

		exporter := store.Exporter{Addr: remoteAddr, Port: uint16(remote.Port)}

		pkt, err := d.Decode(buffer[:length], exporter)
		if err != nil {
			log.WithError(err).Error("Unable to decode NetFlow packet")
			continue
		}

		dump(pkt)
	}
}

func dump(pkt *decoder.Packet) {
	fmt.Printf("--------------------------------\n")
	exporter := pkt.Exporter()
	fmt.Printf("Exporter: %s source id %d ts %d\n", exporter.Addr.String(), pkt.SourceID(), pkt.Timestamp())

	for i := 0; i < pkt.NumFlowsets(); i++ {
		kind, _ := pkt.FlowSetKind(i)
		n, _ := pkt.NumRecords(i)
		fmt.Printf("Flowset %d: %s, %d records\n", i, kind, n)

		for j := 0; j < n; j++ {
			fields, err := pkt.GetAllFields(i, j)
			if err != nil {
				continue
			}

			for _, f := range fields {
				if len(f.Value) <= 8 {
					v := make([]byte, len(f.Value))
					copy(v, f.Value)
					fmt.Printf("  field %d: %d\n", f.ID.Type(), convert.Uint64(convert.Reverse(v)))
					continue
				}
				fmt.Printf("  field %d: %x\n", f.ID.Type(), f.Value)
			}

			if rate, info, err := pkt.GetSamplingRate(i, j); err == nil {
				fmt.Printf("  sampling rate: %d (%s)\n", rate, info)
			}
		}
	}
}
