/*
Package pipeline folds raw events into derived state.

StreamUpdater keeps the persisted count-min sketch up to date. BatchAggregationJob closes
unseen events into immutable exact batches. Both follow the same cycle:

  - read the pipeline's ledger
  - read every stored raw event not in it, in sorted id order
  - persist the derived state
  - append the consumed ids to the ledger

State is always written before the ledger. A crash between the two re-counts the same
events on the next run instead of losing them. A cycle that finds nothing new writes nothing.
*/
package pipeline
