package simulator

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// Config holds the simulator listener settings.
type Config struct {
	// Addr is the TCP listen address, e.g. ":5025" or "127.0.0.1:0".
	Addr string
	// AllowedCIDRs lists the client networks accepted. Empty allows none.
	AllowedCIDRs []string
	// IdleTimeout closes connections that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
}

// Server exposes an Instrument over a raw SCPI socket.
type Server struct {
	config     Config
	instrument *Instrument
	networks   []*net.IPNet

	listener          net.Listener
	stopChan          chan struct{}
	activeConnections map[string]net.Conn
	connectionsMutex  sync.RWMutex
	wg                sync.WaitGroup
}

// NewServer creates a simulator server for inst.
func NewServer(cfg Config, inst *Instrument) (*Server, error) {
	networks := make([]*net.IPNet, 0, len(cfg.AllowedCIDRs))
	for _, cidr := range cfg.AllowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed CIDR %q: %w", cidr, err)
		}
		networks = append(networks, network)
	}

	return &Server{
		config:            cfg,
		instrument:        inst,
		networks:          networks,
		stopChan:          make(chan struct{}),
		activeConnections: make(map[string]net.Conn),
	}, nil
}

// Listen binds the listener without accepting connections.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	log.Printf("SCPI simulator listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on the bound listener until Close.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("simulator is not listening")
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("Failed to accept connection: %v", err)
			continue
		}

		if !s.isAllowedConnection(conn) {
			log.Printf("Rejected connection from %s (not in allowed CIDRs)", conn.RemoteAddr())
			conn.Close()
			continue
		}

		if !s.add(conn) {
			conn.Close()
			return nil
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.remove(conn)
	defer conn.Close()

	log.Printf("Simulator client connected: %s", conn.RemoteAddr())
	reader := bufio.NewReader(conn)
	for {
		if s.config.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout))
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if line == "" {
				log.Printf("Simulator client disconnected: %s", conn.RemoteAddr())
				return
			}
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if resp, ok := s.instrument.Execute(line); ok {
				if _, werr := conn.Write(resp); werr != nil {
					log.Printf("Failed to write response to %s: %v", conn.RemoteAddr(), werr)
					return
				}
			}
		}

		if err != nil {
			return
		}
	}
}

// add registers conn for a handler. It reports false once Close has begun,
// so no handler starts after Close has swept the connections.
func (s *Server) add(conn net.Conn) bool {
	s.connectionsMutex.Lock()
	defer s.connectionsMutex.Unlock()

	select {
	case <-s.stopChan:
		return false
	default:
	}
	s.activeConnections[conn.RemoteAddr().String()] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) remove(conn net.Conn) {
	s.connectionsMutex.Lock()
	defer s.connectionsMutex.Unlock()
	delete(s.activeConnections, conn.RemoteAddr().String())
}

// ActiveConnections returns the number of connected clients.
func (s *Server) ActiveConnections() int {
	s.connectionsMutex.RLock()
	defer s.connectionsMutex.RUnlock()
	return len(s.activeConnections)
}

// isAllowedConnection checks if the connection is from an allowed CIDR
func (s *Server) isAllowedConnection(conn net.Conn) bool {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return false
	}

	clientIP := net.ParseIP(host)
	if clientIP == nil {
		return false
	}

	for _, network := range s.networks {
		if network.Contains(clientIP) {
			return true
		}
	}
	return false
}

// Close stops accepting, drops open connections and waits for their
// handlers to finish.
func (s *Server) Close() error {
	s.connectionsMutex.Lock()
	select {
	case <-s.stopChan:
		s.connectionsMutex.Unlock()
		return nil
	default:
		close(s.stopChan)
	}
	for _, conn := range s.activeConnections {
		conn.Close()
	}
	s.connectionsMutex.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.wg.Wait()
	return err
}
