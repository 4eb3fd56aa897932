package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("record was modified by another operation, please retry")

// ErrTransactionFailure 事务执行失败（包装底层持久化错误）
var ErrTransactionFailure = errors.New("transaction failed")

// WrapTx 将底层持久化错误包装为 ErrTransactionFailure，保留原始错误链
func WrapTx(err error) error {
	if err == nil || errors.Is(err, ErrTransactionFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}
