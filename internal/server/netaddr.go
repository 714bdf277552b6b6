package server

import "net"

const (
	// probeAddress は外向き経路のローカルアドレスを調べるための接続先
	probeAddress = "8.8.8.8:80"
	// fallbackIP はローカルアドレスを特定できないときに表示するアドレス
	fallbackIP = "127.0.0.1"
)

// LocalIP は外部へ到達可能なネットワークインターフェースのIPを返す。
// UDPは接続時にパケットを送らないため、実際の通信は発生しない。
// 表示専用であり、リッスンには使わない。
func LocalIP() string {
	return localIPVia(probeAddress)
}

func localIPVia(addr string) string {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fallbackIP
	}
	defer conn.Close()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || udpAddr.IP == nil || udpAddr.IP.IsUnspecified() {
		return fallbackIP
	}
	return udpAddr.IP.String()
}
