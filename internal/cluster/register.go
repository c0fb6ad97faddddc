package cluster

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"goldenglow/internal/obslog"
)

// Registration descreve como o serviço aparece no catálogo do Consul.
type Registration struct {
	ConsulAddr    string
	ServiceName   string
	AdvertiseHost string
	Listen        string
	HealthPath    string
}

// Registrar mantém o registro do serviço no agente Consul local.
type Registrar struct {
	client    *consul.Client
	serviceID string
}

// Register registra o serviço com um check HTTP apontando para o /health.
func Register(reg Registration) (*Registrar, error) {
	cfg := consul.DefaultConfig()
	cfg.Address = reg.ConsulAddr

	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "consul client")
	}

	host := reg.AdvertiseHost
	if host == "" {
		// O hostname do contêiner é resolvível dentro da rede do compose.
		host, _ = os.Hostname()
	}
	_, portStr, err := net.SplitHostPort(reg.Listen)
	if err != nil {
		return nil, errors.Wrapf(err, "listen address %q", reg.Listen)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen port %q", portStr)
	}

	serviceID := fmt.Sprintf("%s-%s", reg.ServiceName, host)
	registration := &consul.AgentServiceRegistration{
		ID:      serviceID,
		Name:    reg.ServiceName,
		Address: host,
		Port:    port,
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", host, port, reg.HealthPath),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, errors.Wrap(err, "consul register")
	}

	obslog.L().Info("consul_registered",
		zap.String("service", reg.ServiceName),
		zap.String("service_id", serviceID),
	)
	return &Registrar{client: client, serviceID: serviceID}, nil
}

// Deregister remove o serviço do catálogo.
func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return errors.Wrap(err, "consul deregister")
	}
	obslog.L().Info("consul_deregistered", zap.String("service_id", r.serviceID))
	return nil
}
