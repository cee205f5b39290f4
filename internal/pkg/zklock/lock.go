// internal/pkg/zklock/lock.go
package zklock

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/checkout_locks" // 所有结账会话锁的根节点

// Conn 封装 ZooKeeper 连接。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// Lock 是基于临时顺序节点的分布式锁，
// 用于保证同一个结账会话在多实例部署下也只有一个在途提交。
type Lock struct {
	conn     *Conn
	path     string // 锁路径，例如 /checkout_locks/session-xxx
	lockNode string // 成功抢锁后自己创建的节点
	timeout  time.Duration
}

// New 创建一个作用于 resourceID 的锁实例。
func New(conn *Conn, resourceID string, timeout time.Duration) *Lock {
	ensurePath(conn, lockRoot)
	lockPath := lockRoot + "/" + resourceID
	ensurePath(conn, lockPath)
	return &Lock{conn: conn, path: lockPath, timeout: timeout}
}

func ensurePath(conn *Conn, path string) {
	if exists, _, err := conn.Exists(path); err == nil && exists {
		return
	}
	if _, err := conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		panic(fmt.Sprintf("failed to create lock path node %s: %v", path, err))
	}
}

// Lock 尝试获取锁，抢不到时监听前序节点并阻塞等待，超时返回错误。
func (l *Lock) Lock() error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			// 自己是最小节点，锁到手
			return nil
		}

		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("cannot find previous node, something is wrong")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		// 一次性 Watcher，前序节点消失时被唤醒重新竞争
		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(l.timeout):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *Lock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
