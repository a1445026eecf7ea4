package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/rosalee33/collab-vim/backend/internal/cache"
	"github.com/rosalee33/collab-vim/backend/internal/collab"
	"github.com/rosalee33/collab-vim/backend/internal/httpapi/handlers"
	"github.com/rosalee33/collab-vim/backend/internal/store"
	"github.com/rosalee33/collab-vim/backend/internal/ws"
)

type AgentConfig struct {
	Running struct {
		Port          int `mapstructure:"port"`
		ApplyEveryMS  int `mapstructure:"applyEveryMs"`
		HeartbeatSecs int `mapstructure:"heartbeatSecs"`
	} `mapstructure:"running"`
	Remote struct {
		URL string `mapstructure:"url"` // ws://host:port/collab/ws
	} `mapstructure:"remote"`
	Doc struct {
		ID       string `mapstructure:"id"`
		UserID   uint64 `mapstructure:"userId"`
		Username string `mapstructure:"username"`
	} `mapstructure:"doc"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"mysql"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
}

func initConfig() (*AgentConfig, error) {
	cfg := &AgentConfig{}
	v := viper.New()
	v.SetConfigName("agentConfig")
	v.SetConfigType("yaml")
	// 兼容从仓库根目录或 backend 目录启动
	v.AddConfigPath("./backend/config")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// agentEngine：引擎状态的持有者。缓冲区只在主循环 goroutine 里被改，
// HTTP 面的读和快照走读锁。
type agentEngine struct {
	mu    sync.RWMutex
	docID string
	buf   *collab.LineBuffer

	applier *collab.Applier
	emitter *collab.RemoteEmitter

	// 本地编辑从 HTTP 面进主循环的通道
	localEdits chan *collab.Edit

	snapshots *store.SnapshotStore // 可为 nil（未配置 mysql）
}

func (e *agentEngine) DocID() string { return e.docID }

func (e *agentEngine) Snapshot() (string, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.String(), e.applier.Revision()
}

func (e *agentEngine) SubmitLocalEdit(ctx context.Context, edit *collab.Edit) error {
	edit.Buf = e.buf
	select {
	case e.localEdits <- edit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *agentEngine) SaveSnapshot(ctx context.Context) error {
	if e.snapshots == nil {
		return errors.New("snapshot store not configured")
	}
	content, rev := e.Snapshot()
	return e.snapshots.SaveDocumentSnapshot(ctx, e.docID, rev, content)
}

// 引擎主循环：唯一会改缓冲区的 goroutine。
// 每个 tick 排空一次远端编辑队列；本地编辑到了就先应用再镜像出去。
func (e *agentEngine) run(ctx context.Context, applyEvery time.Duration) {
	ticker := time.NewTicker(applyEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return

		case edit := <-e.localEdits:
			e.mu.Lock()
			err := e.applier.ApplyLocal(ctx, edit)
			e.mu.Unlock()
			if err != nil {
				log.Printf("local edit apply failed type=%s line=%d: %v", edit.Type, edit.Line, err)
				continue
			}
			// 本地已生效，镜像失败不回滚（远端副本允许落后）
			if err := e.emitter.Emit(edit); err != nil {
				log.Printf("remote mirror failed: %v", err)
			}

		case <-ticker.C:
			e.mu.Lock()
			n, err := e.applier.ApplyReady(ctx)
			e.mu.Unlock()
			if err != nil {
				log.Printf("applied %d remote edits with errors: %v", n, err)
			}
		}
	}
}

func main() {
	cfg, err := initConfig()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}
	log.Printf("config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === 可选依赖：Redis（在场感知） ===
	var presence cache.PresenceCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		presence = cache.NewRedisPresence(rdb)
	}

	// === 可选依赖：MySQL（快照持久化） ===
	var snapshots *store.SnapshotStore
	if cfg.Mysql.DSN != "" {
		db, err := store.InitMySQL(cfg.Mysql.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		snapshots = store.NewSnapshotStore(db)
	}

	// === 可选依赖：Kafka（已应用编辑的审计流） ===
	var dispatcher *collab.KafkaDispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaCfg := sarama.NewConfig()
		// SyncProducer 必须开启 Return.Successes
		kafkaCfg.Producer.Return.Successes = true
		kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
		if err != nil {
			log.Fatalf("Failed to connect kafka: %v", err)
		}
		defer producer.Close()

		dispatcher = collab.NewKafkaDispatcher(
			producer,
			cfg.Kafka.Topic,
			collab.NewSemaphoreControl(),
			collab.KafkaDispatcherOptions{
				QueueSize:   10_000,
				Workers:     4,
				MaxRetry:    3,
				BaseBackoff: 50 * time.Millisecond,
				MaxBackoff:  1 * time.Second,
			},
		)
		defer dispatcher.Close()
	}

	// === 核心装配：队列、缓冲区、应用器、远端连接 ===
	queue := collab.NewEditQueue()
	buf := collab.NewLineBuffer("")

	client, err := ws.Dial(ctx, cfg.Remote.URL, queue, buf)
	if err != nil {
		log.Fatalf("Failed to connect remote backend: %v", err)
	}
	defer client.Close()

	eng := &agentEngine{
		docID:      cfg.Doc.ID,
		buf:        buf,
		applier:    collab.NewApplier(queue, cfg.Doc.ID, dispatcher),
		emitter:    collab.NewRemoteEmitter(client),
		localEdits: make(chan *collab.Edit, 64),
		snapshots:  snapshots,
	}

	// 接收循环：独立 goroutine，ctx 取消时退出
	go client.ReadLoop(ctx)
	defer queue.Close()

	// 在场心跳
	if presence != nil {
		heartbeat := time.Duration(cfg.Running.HeartbeatSecs) * time.Second
		if heartbeat <= 0 {
			heartbeat = 30 * time.Second
		}
		go func() {
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := presence.AddMember(ctx, cfg.Doc.ID, cfg.Doc.UserID, cfg.Doc.Username, 600*time.Second); err != nil {
						log.Printf("add member error: %v", err)
					}
				}
			}
		}()
	}

	// HTTP 面
	h := handlers.NewAgentHandlers(eng, presence)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	agent := r.Group("/agent")
	agent.GET("/healthz", h.Healthz)
	agent.GET("/doc", h.GetDocument)
	agent.GET("/members", h.GetMembers)
	agent.POST("/doc/save", h.SaveDocument)
	agent.POST("/edit", h.SubmitEdit)

	go func() {
		if err := r.Run(fmt.Sprintf(":%d", cfg.Running.Port)); err != nil {
			log.Fatalf("http server exited: %v", err)
		}
	}()

	applyEvery := time.Duration(cfg.Running.ApplyEveryMS) * time.Millisecond
	if applyEvery <= 0 {
		applyEvery = 20 * time.Millisecond
	}
	// 主循环在当前 goroutine 跑到进程退出
	eng.run(ctx, applyEvery)
}
