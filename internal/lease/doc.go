// Package lease grants one controller at a time the authority to command a vehicle.
//
// A lease is a key in a JetStream KV bucket named after the vehicle:
//   - Create (atomic): acquire the lease if nobody holds it
//   - Update (with revision): renew the lease while still holding it
//   - Delete: release the lease
//
// The bucket TTL expires a lease whose holder crashed, so another controller
// can take over after at most one TTL.
//
// # Usage
//
//	kv, _ := lease.EnsureBucket(ctx, js, "GUIDANCE_LEASES", 10*time.Second, 3)
//	l := lease.New(kv, "uav-1")
//
//	ok, err := l.Acquire(ctx, "ground-station-a")
//	if err != nil || !ok {
//	    return err // someone else is steering uav-1
//	}
//	defer l.Release(context.Background())
//
//	go func() {
//	    if err := l.KeepAlive(ctx, 3*time.Second); err != nil {
//	        // authority lost: stop issuing commands
//	    }
//	}()
package lease
