package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrJobRunNotFound = errors.New("job run not found")

// JobRun 單次排程工作的執行紀錄
type JobRun struct {
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	OK         bool
	Message    string
}

/*
	結構:
	job:<name>:lock  -> token (SET NX PX)
	job:<name>:last  -> hash { started_at, finished_at, ok, message }
*/

func lockKey(job string) string {
	return fmt.Sprintf("job:%s:lock", job)
}

func lastRunKey(job string) string {
	return fmt.Sprintf("job:%s:last", job)
}

// 只有持有 token 的人可以釋放
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// JobRunRepo 多個 instance 共用排程時, 保證同一個 job 同時只有一個在跑
type JobRunRepo struct {
	client *redis.Client
}

func NewJobRunRepo(client *redis.Client) *JobRunRepo {
	return &JobRunRepo{client: client}
}

// Acquire 取得 job 的執行權, ok 為 false 表示其他 instance 正在執行
func (r *JobRunRepo) Acquire(ctx context.Context, job string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKey(job), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *JobRunRepo) Release(ctx context.Context, job, token string) error {
	return releaseScript.Run(ctx, r.client, []string{lockKey(job)}, token).Err()
}

func (r *JobRunRepo) RecordRun(ctx context.Context, run JobRun) error {
	return r.client.HSet(ctx, lastRunKey(run.Job),
		"started_at", run.StartedAt.UnixNano(),
		"finished_at", run.FinishedAt.UnixNano(),
		"ok", run.OK,
		"message", run.Message,
	).Err()
}

// LastRun 錯誤:
//   - ErrJobRunNotFound: 尚未執行過
//   - err: 其他錯誤
func (r *JobRunRepo) LastRun(ctx context.Context, job string) (*JobRun, error) {
	var raw struct {
		StartedAt  int64  `redis:"started_at"`
		FinishedAt int64  `redis:"finished_at"`
		OK         bool   `redis:"ok"`
		Message    string `redis:"message"`
	}

	res := r.client.HGetAll(ctx, lastRunKey(job))
	if err := res.Err(); err != nil {
		return nil, err
	}
	if len(res.Val()) == 0 {
		return nil, ErrJobRunNotFound
	}
	if err := res.Scan(&raw); err != nil {
		return nil, err
	}

	return &JobRun{
		Job:        job,
		StartedAt:  time.Unix(0, raw.StartedAt),
		FinishedAt: time.Unix(0, raw.FinishedAt),
		OK:         raw.OK,
		Message:    raw.Message,
	}, nil
}
